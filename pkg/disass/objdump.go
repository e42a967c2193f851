package disass

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/blacktop/disdiff/pkg/sanitize"
	"github.com/blacktop/disdiff/pkg/symtab"
)

// Objdump parses `objdump -d --no-show-raw-insn` output. A symbol header is
// "<addr> <name>:"; instruction lines carry their address in the column
// before the first tab. Symbol lengths come from the next symbol's start,
// with the final symbol patched from its last instruction.
type Objdump struct{}

func (o *Objdump) Dialect() sanitize.Dialect {
	return sanitize.Objdump
}

func (o *Objdump) Parse(r io.Reader) (*symtab.Table, error) {
	ps := newParseState()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lastInsn uint64
	lines := 0
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lines++
		if first {
			first = false // banner line naming the executable
			continue
		}

		if strings.HasSuffix(line, ">:") {
			addr, err := strconv.ParseUint(leadingHex(line), 16, 64)
			if err != nil || addr == 0 {
				continue // section headers and PLT noise
			}

			if ps.cur != nil && addr > ps.cur.StartAddress {
				if length := addr - ps.cur.StartAddress; length > ps.cur.Length {
					ps.cur.Length = length
				}
			}

			name := line
			if lb := strings.IndexByte(name, '<'); lb >= 0 {
				name = name[lb+1:]
			}
			if rb := strings.IndexByte(name, '>'); rb >= 0 {
				name = name[:rb]
			}

			ps.open(name)
			ps.cur.StartAddress = addr
			lastInsn = 0
			continue
		}
		if ps.cur == nil {
			continue
		}

		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			col := strings.TrimSuffix(strings.TrimSpace(line[:tab]), ":")
			if addr, err := strconv.ParseUint(col, 16, 64); err == nil {
				lastInsn = addr
			}
			line = strings.TrimSpace(line[tab+1:])
		}

		neutralize := strings.Contains(line, "%rip") ||
			strings.Contains(line, "%rsp") ||
			strings.HasSuffix(line, ">") ||
			strings.HasPrefix(line, "call") ||
			strings.HasPrefix(line, "jmp")

		if neutralize {
			line = sanitize.Neutralize(line, sanitize.Objdump)
		}
		ps.appendLine(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// the last symbol has no successor to take a length from
	if ps.cur != nil && lastInsn >= ps.cur.StartAddress {
		ps.cur.Observe(lastInsn, 4)
	}
	ps.flush()

	log.WithFields(log.Fields{
		"lines":   humanize.Comma(int64(lines)),
		"symbols": humanize.Comma(int64(ps.tbl.Len())),
	}).Debug("parsed objdump output")

	return ps.tbl, nil
}

func leadingHex(s string) string {
	n := 0
	for n < len(s) && isHexDigit(s[n]) {
		n++
	}
	return s[:n]
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
