package symtab

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Record is one named, address-bounded region of an executable, typically a
// function. The parser mutates it until the next symbol header is seen; after
// that it is read-only.
type Record struct {
	StartAddress uint64
	Length       uint64
	Text         string
}

// Observe records one instruction address. The first address seen becomes the
// record's start; later addresses extend the length. width is the size of the
// instruction at addr (4 when the disassembler doesn't say).
func (r *Record) Observe(addr, width uint64) {
	if r.StartAddress == 0 {
		r.StartAddress = addr
	}
	if end := (addr - r.StartAddress) + width; end > r.Length {
		r.Length = end
	}
}

// Table maps unique symbol names to their records.
type Table struct {
	syms map[string]*Record
}

func NewTable() *Table {
	return &Table{syms: make(map[string]*Record, 4096)}
}

// Add inserts a new record under name, suffixing with "#<k>" on collision,
// and returns the key actually used along with the fresh record.
func (t *Table) Add(name string) (string, *Record) {
	if _, ok := t.syms[name]; ok {
		name = t.uniqueName(name)
	}
	r := &Record{}
	t.syms[name] = r
	return name, r
}

// uniqueName returns the smallest "name#k" not already present. The suffix is
// split at the last '#' so that names that themselves end in digits
// (e.g. "crc32") stay stable.
func (t *Table) uniqueName(name string) string {
	s := name + "#0"
	for {
		if _, ok := t.syms[s]; !ok {
			return s
		}
		idx := strings.LastIndexByte(s, '#')
		suffix, err := strconv.ParseUint(s[idx+1:], 10, 32)
		if err != nil {
			// '#' belonged to the symbol name itself
			return s + "#0"
		}
		s = fmt.Sprintf("%s#%d", s[:idx], suffix+1)
	}
}

func (t *Table) Get(name string) (*Record, bool) {
	r, ok := t.syms[name]
	return r, ok
}

func (t *Table) Remove(name string) {
	delete(t.syms, name)
}

func (t *Table) Len() int {
	return len(t.syms)
}

// Names returns all keys in ascending order, the iteration order of the
// final matching step.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.syms))
}

// Entry ties a unique name to its record for ordered traversal.
type Entry struct {
	Name string
	Rec  *Record
}

// ByAddress returns the table's entries sorted ascending by start address,
// with text as a tie-breaker for the zero-address degenerates.
func (t *Table) ByAddress() []Entry {
	entries := make([]Entry, 0, len(t.syms))
	for name, rec := range t.syms {
		entries = append(entries, Entry{Name: name, Rec: rec})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rec.StartAddress != entries[j].Rec.StartAddress {
			return entries[i].Rec.StartAddress < entries[j].Rec.StartAddress
		}
		return entries[i].Rec.Text < entries[j].Rec.Text
	})
	return entries
}
