package symtab

import "sort"

// Index is an address-ordered view of a table used for O(logN) lookups from
// an instruction operand back to the symbol that owns it. Names are copied in
// so the index stays valid however the table is mutated afterwards.
type Index struct {
	names  []string
	starts []uint64
	ends   []uint64
}

// NewIndex builds an index from address-sorted entries (see Table.ByAddress).
func NewIndex(entries []Entry) *Index {
	ix := &Index{
		names:  make([]string, len(entries)),
		starts: make([]uint64, len(entries)),
		ends:   make([]uint64, len(entries)),
	}
	for i, e := range entries {
		ix.names[i] = e.Name
		ix.starts[i] = e.Rec.StartAddress
		ix.ends[i] = e.Rec.StartAddress + e.Rec.Length
	}
	return ix
}

// Find returns the name of the symbol whose half-open interval
// [start, start+length) contains addr, or false if no symbol does (typical
// for stack offsets and small numeric constants).
func (ix *Index) Find(addr uint64) (string, bool) {
	i := sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > addr
	})
	if i == 0 {
		return "", false
	}
	i--
	if addr >= ix.starts[i] && addr < ix.ends[i] {
		return ix.names[i], true
	}
	return "", false
}

func (ix *Index) Len() int {
	return len(ix.names)
}
