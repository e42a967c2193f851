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

// Otool parses `otool -tV` output. A symbol header is a line ending in ":";
// instruction lines are "<address>\t<body>" where the body may carry a
// trailing " ## ..." comment.
type Otool struct{}

func (o *Otool) Dialect() sanitize.Dialect {
	return sanitize.Otool
}

func (o *Otool) Parse(r io.Reader) (*symtab.Table, error) {
	ps := newParseState()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := 0
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lines++
		if first {
			first = false // banner line naming the executable
			continue
		}

		if strings.HasSuffix(line, ":") {
			ps.open(strings.TrimSuffix(line, ":"))
			continue
		}
		if ps.cur == nil {
			continue
		}

		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			if addr, err := strconv.ParseUint(strings.TrimSpace(line[:tab]), 16, 64); err == nil {
				ps.cur.Observe(addr, 4)
			}
			line = line[tab+1:]
		}

		pre, comment := line, ""
		if ci := strings.Index(line, " ## "); ci >= 0 {
			pre, comment = line[:ci], line[ci:]
		}

		neutralize := strings.Contains(line, ripOperand) ||
			strings.Contains(comment, " for: ") ||
			strings.Contains(comment, " symbol address:") ||
			((strings.HasPrefix(line, "call") || strings.HasPrefix(line, "jmp")) && comment == "")

		if neutralize {
			pre = sanitize.Neutralize(pre, sanitize.Otool)
		}
		if strings.Contains(comment, "literal") {
			pre += comment
		}
		ps.appendLine(pre)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	ps.flush()

	log.WithFields(log.Fields{
		"lines":   humanize.Comma(int64(lines)),
		"symbols": humanize.Comma(int64(ps.tbl.Len())),
	}).Debug("parsed otool output")

	return ps.tbl, nil
}
