// Package diff compares the normalized symbol tables of two builds and
// renders a report of every routine whose disassembly changed.
package diff

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/blacktop/disdiff/internal/commands/exe"
	"github.com/blacktop/disdiff/internal/utils"
	"github.com/blacktop/disdiff/pkg/symtab"
)

// Differ turns two text blobs into a human-readable line diff.
type Differ func(prev, next string) (string, error)

type Config struct {
	Title    string
	OldPath  string
	NewPath  string
	Output   string
	DiffTool string
	Color    bool
}

type Context struct {
	Path  string
	Table *symtab.Table
}

// Diff holds the outcome of comparing two builds: per-symbol diff blocks for
// routines present in both, and the names only one build has.
type Diff struct {
	Title   string
	Old     Context
	New     Context
	Matched int
	Updated map[string]string
	OnlyOld []string
	OnlyNew []string

	conf   *Config
	differ Differ
}

func New(conf *Config) *Diff {
	d := &Diff{
		Title:   conf.Title,
		Old:     Context{Path: conf.OldPath},
		New:     Context{Path: conf.NewPath},
		Updated: make(map[string]string),
		conf:    conf,
	}
	if d.Title == "" {
		d.Title = fmt.Sprintf("%s .vs %s", filepath.Base(conf.OldPath), filepath.Base(conf.NewPath))
	}
	d.differ = func(prev, next string) (string, error) {
		return utils.LineDiff(prev, next, &utils.LineDiffConfig{Tool: conf.DiffTool, Color: conf.Color})
	}
	return d
}

// SetDiffer overrides the line-diff collaborator (used by tests).
func (d *Diff) SetDiffer(differ Differ) {
	d.differ = differ
}

// Diff disassembles both executables, throws away every symbol whose
// normalized text is byte-identical across the two, and renders a diff block
// for each symbol that remains in both tables.
func (d *Diff) Diff() (err error) {
	d.Old.Table, err = exe.Disassemble(d.Old.Path)
	if err != nil {
		return fmt.Errorf("failed to parse 'Old' executable: %w", err)
	}

	d.New.Table, err = exe.Disassemble(d.New.Path)
	if err != nil {
		return fmt.Errorf("failed to parse 'New' executable: %w", err)
	}

	d.Matched = PruneIdentical(d.Old.Table, d.New.Table)
	d.Matched += PruneIdentical(d.New.Table, d.Old.Table) // defensive, should be a no-op

	log.Infof("Found %s matching symbols and %s non-matching symbols",
		humanize.Comma(int64(d.Matched)),
		humanize.Comma(int64(d.Old.Table.Len()+d.New.Table.Len())))

	d.report()

	return nil
}

// PruneIdentical removes from both tables every symbol name they share whose
// text is byte-identical, and returns how many pairs were dropped.
func PruneIdentical(a, b *symtab.Table) int {
	removed := 0
	for _, name := range a.Names() {
		ra, _ := a.Get(name)
		if rb, ok := b.Get(name); ok && rb.Text == ra.Text {
			b.Remove(name)
			a.Remove(name)
			removed++
		}
	}
	return removed
}

// report classifies everything the prune left behind: names only one table
// holds, and a rendered diff block for each name still present in both.
func (d *Diff) report() {
	d.OnlyOld = utils.Difference(d.Old.Table.Names(), d.New.Table.Names())
	for _, name := range d.OnlyOld {
		log.Warnf("Symbol [%s] exists in [%s] but is not present in [%s]", name, d.Old.Path, d.New.Path)
	}
	d.OnlyNew = utils.Difference(d.New.Table.Names(), d.Old.Table.Names())
	for _, name := range d.OnlyNew {
		log.Warnf("Symbol [%s] exists in [%s] but is not present in [%s]", name, d.New.Path, d.Old.Path)
	}

	for _, name := range d.Old.Table.Names() {
		rb, ok := d.New.Table.Get(name)
		if !ok {
			continue
		}
		ra, _ := d.Old.Table.Get(name)

		log.Warnf("Diffs detected in symbol [%s]", name)
		out, err := d.differ(ra.Text, rb.Text)
		if err != nil {
			log.WithError(err).Errorf("diff tool failed for symbol [%s]", name)
			out = "Unable to launch diff!"
		}
		d.Updated[name] = out
	}
}

func (d *Diff) render(colorize bool) string {
	header := func(format string, a ...any) string {
		if colorize {
			return color.New(color.FgHiCyan, color.Bold).Sprintf(format, a...)
		}
		return fmt.Sprintf(format, a...)
	}

	var out strings.Builder
	for _, name := range slices.Sorted(maps.Keys(d.Updated)) {
		out.WriteString(header("\n\n===================== Diffs for [%s]:\n", name))
		out.WriteString(d.Updated[name])
		out.WriteString("\n")
	}
	for _, name := range d.OnlyOld {
		out.WriteString(fmt.Sprintf("Symbol [%s] exists in [%s] but is not present in [%s]\n", name, d.Old.Path, d.New.Path))
	}
	for _, name := range d.OnlyNew {
		out.WriteString(fmt.Sprintf("Symbol [%s] exists in [%s] but is not present in [%s]\n", name, d.New.Path, d.Old.Path))
	}
	return out.String()
}

func (d *Diff) String() string {
	return d.render(d.conf.Color)
}

// Save writes the report to a timestamped file in the configured output
// folder (the working directory by default).
func (d *Diff) Save() error {
	name := "disdiff_report_" + time.Now().Format("2006-01-02 15:04:05") + ".txt"
	name = strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(name)

	folder := d.conf.Output
	if folder == "" {
		folder = "."
	}
	if err := os.MkdirAll(folder, 0750); err != nil {
		return err
	}

	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(d.render(false)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Infof("Diffs report written to file [%s]", path)

	return nil
}
