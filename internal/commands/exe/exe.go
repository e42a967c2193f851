// Package exe drives the platform disassembler over an executable and turns
// its output into a normalized symbol table ready for matching.
package exe

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/blacktop/disdiff/pkg/disass"
	"github.com/blacktop/disdiff/pkg/rodata"
	"github.com/blacktop/disdiff/pkg/sanitize"
	"github.com/blacktop/disdiff/pkg/symtab"
)

const (
	otoolPath   = "/usr/bin/otool"
	objdumpPath = "/usr/bin/objdump"
)

func toolForPlatform(goos string) (tool string, args []string, hint string) {
	if goos == "darwin" {
		return otoolPath, []string{"-tV"}, "to install otool, install Xcode (and its command line tools)"
	}
	return objdumpPath, []string{"-d", "--no-show-raw-insn"}, "to install objdump, install binutils"
}

// Disassemble runs the platform disassembler over path, parses its output
// into a symbol table, and rewrites every symbol's text into address-neutral
// form. On the objdump path the .rodata section is dumped and loaded so
// literal-string operands resolve to the literals themselves.
func Disassemble(path string) (*symtab.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "unable to open executable %s", path)
	}

	tool, args, hint := toolForPlatform(runtime.GOOS)
	if _, err := os.Stat(tool); err != nil {
		return nil, fmt.Errorf("%s not found (%s)", filepath.Base(tool), hint)
	}

	log.Infof("Opening executable file [%s]...", path)

	parser := disass.ForPlatform(runtime.GOOS)
	tbl, err := runParser(tool, append(args, path), parser)
	if err != nil {
		return nil, err
	}

	var ro *rodata.Buffer
	if parser.Dialect() == sanitize.Objdump {
		// objdump lacks otool's literal annotations, dump .rodata by hand
		ro, err = loadROData(tool, path)
		if err != nil {
			log.WithError(err).Warn("failed to load .rodata section; literals will not be expanded")
		}
	}

	log.Info("Reconstructing symbol addresses...")
	p := mpb.New(mpb.WithWidth(80))
	name := "      "
	bar := p.New(int64(tbl.Len()),
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("|"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name), C: decor.DindentRight | decor.DextraSpace}),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "✅ ",
			),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("%d/%d"),
			decor.Name(" ] "),
		),
	)
	disass.Normalize(tbl, ro, parser.Dialect(), func() { bar.Increment() })
	p.Wait()

	log.Infof("Parsed %d unique symbols from %s", tbl.Len(), path)

	return tbl, nil
}

func runParser(tool string, args []string, parser disass.Parser) (*symtab.Table, error) {
	cmd := exec.Command(tool, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pipe %s", tool)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to run %s", tool)
	}

	tbl, perr := parser.Parse(stdout)

	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrapf(err, "%s %v failed", tool, args)
	}
	if perr != nil {
		return nil, perr
	}

	return tbl, nil
}

func loadROData(tool, path string) (*rodata.Buffer, error) {
	cmd := exec.Command(tool, "-sj", ".rodata", path)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pipe %s", tool)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to run %s", tool)
	}

	ro, perr := rodata.ParseHexDump(stdout)

	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrapf(err, "%s -sj .rodata failed", tool)
	}
	if perr != nil {
		return nil, perr
	}

	return ro, nil
}
