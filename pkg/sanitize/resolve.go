package sanitize

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blacktop/disdiff/pkg/rodata"
	"github.com/blacktop/disdiff/pkg/symtab"
)

// ResolutionKind says what an address turned out to be.
type ResolutionKind int

const (
	// Unresolved addresses are left alone (probably numeric constants).
	Unresolved ResolutionKind = iota
	// ResolvedSymbol addresses fall inside a known symbol's range.
	ResolvedSymbol
	// ResolvedLiteral addresses point into .rodata.
	ResolvedLiteral
)

// Resolution is the outcome of resolving one absolute address.
type Resolution struct {
	Kind ResolutionKind
	Text string
}

const resolveCacheSize = 1 << 16

// Resolver answers "what does this address mean" against one binary's symbol
// index and optional .rodata section. Hot addresses (shared literals, common
// call targets) repeat constantly across a binary, so outcomes are memoized.
type Resolver struct {
	index *symtab.Index
	ro    *rodata.Buffer
	cache *lru.Cache[uint64, Resolution]
}

// NewResolver builds a resolver over ix and ro; ro may be nil (the otool
// path has no separate .rodata dump).
func NewResolver(ix *symtab.Index, ro *rodata.Buffer) *Resolver {
	cache, _ := lru.New[uint64, Resolution](resolveCacheSize)
	return &Resolver{index: ix, ro: ro, cache: cache}
}

// Resolve maps addr to a literal, a symbol name, or nothing. Literals win
// over symbols, matching the precedence of the substitution rules.
func (r *Resolver) Resolve(addr uint64) Resolution {
	if res, ok := r.cache.Get(addr); ok {
		return res
	}
	res := r.resolve(addr)
	r.cache.Add(addr, res)
	return res
}

func (r *Resolver) resolve(addr uint64) Resolution {
	if r.ro.Contains(addr) {
		if r.ro.IsOffsetSlot(addr) {
			return Resolution{Kind: ResolvedLiteral, Text: "{(offset)}"}
		}
		return Resolution{Kind: ResolvedLiteral, Text: "{" + r.ro.CString(addr) + "}"}
	}
	if name, ok := r.index.Find(addr); ok {
		return Resolution{Kind: ResolvedSymbol, Text: name}
	}
	return Resolution{Kind: Unresolved}
}
