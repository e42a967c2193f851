package sanitize

import (
	"strconv"
	"strings"
)

// Line rewrites one disassembly line: absolute addresses are expanded into
// their symbol name or {literal} form where the resolver knows them, embedded
// newlines are escaped, and a trailing "<name+0xk>" reference loses its
// size-sensitive offset.
func (r *Resolver) Line(line string, d Dialect) string {
	var out strings.Builder
	out.Grow(len(line))

	i := 0
	for i < len(line) {
		// negative offsets like -0x20 can't be expanded, pass them through
		if strings.HasPrefix(line[i:], "-0x") {
			out.WriteString("-0x")
			i += 3
			continue
		}

		var skip int
		switch {
		case strings.HasPrefix(line[i:], "0x"):
			skip = 2
		case d == Objdump && line[i] == ' ' && i+1 < len(line) && isHexChar(line[i+1]):
			// objdump writes bare addresses in operands, e.g. "jmp 4010a0"
			if strings.HasPrefix(line[i+1:], "0x") {
				skip = 3
			} else {
				skip = 1
			}
		default:
			out.WriteByte(line[i])
			i++
			continue
		}

		j := i + skip
		k := j + hexRunLen(line[j:])
		if addr, err := strconv.ParseUint(line[j:k], 16, 64); err == nil {
			if res := r.Resolve(addr); res.Kind != Unresolved {
				out.WriteString(res.Text)
				i = k
				continue
			}
		}
		// lookup failed: it's probably a numeric constant, leave it as-is
		out.WriteByte(line[i])
		i++
	}

	s := strings.ReplaceAll(out.String(), "\n", `\n`)

	if strings.HasSuffix(s, ">") {
		if ob := strings.LastIndexByte(s, '<'); ob >= 0 {
			if pb := strings.LastIndexByte(s, '+'); pb > ob {
				s = s[:pb] + ">"
			}
		}
	}

	return s
}

// Text runs every line of a symbol's accumulated text through Line and
// reassembles the newline-terminated result.
func (r *Resolver) Text(text string, d Dialect) string {
	if text == "" {
		return ""
	}
	var out strings.Builder
	out.Grow(len(text))
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		out.WriteString(r.Line(line, d))
		out.WriteByte('\n')
	}
	return out.String()
}
