// Package disass parses the textual output of the platform disassembler
// (otool on darwin, objdump elsewhere) into symbol tables, and normalizes
// the per-symbol text so builds can be compared address-independently.
package disass

import (
	"io"

	"github.com/blacktop/disdiff/pkg/rodata"
	"github.com/blacktop/disdiff/pkg/sanitize"
	"github.com/blacktop/disdiff/pkg/symtab"
)

// ripOperand marks instruction-pointer-relative addressing in otool output;
// lines carrying it get their addresses neutralized outright.
const ripOperand = "(%rip)"

// Parser groups disassembler output lines under their symbols. Both dialects
// share the symbol-table schema and the unique-naming policy; they differ in
// header shape, address bookkeeping, and per-line neutralize rules.
type Parser interface {
	Parse(r io.Reader) (*symtab.Table, error)
	Dialect() sanitize.Dialect
}

// ForPlatform selects the dialect parser for a GOOS value.
func ForPlatform(goos string) Parser {
	if goos == "darwin" {
		return &Otool{}
	}
	return &Objdump{}
}

// parseState holds the currently-open symbol and its text under
// construction. Text accumulates in the scratch builder and is flushed onto
// the record at each symbol boundary.
type parseState struct {
	tbl *symtab.Table
	cur *symtab.Record
	buf []byte
}

func newParseState() *parseState {
	return &parseState{tbl: symtab.NewTable()}
}

func (ps *parseState) open(name string) {
	ps.flush()
	_, ps.cur = ps.tbl.Add(name)
}

func (ps *parseState) appendLine(line string) {
	ps.buf = append(ps.buf, line...)
	ps.buf = append(ps.buf, '\n')
}

func (ps *parseState) flush() {
	if ps.cur != nil {
		ps.cur.Text = string(ps.buf)
		ps.cur = nil
	}
	ps.buf = ps.buf[:0]
}

// Normalize is the shared post-pass: sort the table by start address, build
// the address index, then re-walk every symbol's text through the sanitizer.
// ro may be nil. tick, if non-nil, is called once per symbol so the caller
// can drive a progress bar.
func Normalize(tbl *symtab.Table, ro *rodata.Buffer, d sanitize.Dialect, tick func()) {
	entries := tbl.ByAddress()
	resolver := sanitize.NewResolver(symtab.NewIndex(entries), ro)
	for _, e := range entries {
		e.Rec.Text = resolver.Text(e.Rec.Text, d)
		if tick != nil {
			tick()
		}
	}
}
