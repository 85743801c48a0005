// Package symbol implements the engine's append-only symbol table, the
// bijection between domain-level symbols (enum values, action
// identifiers) and the float codes stored inside keyed vectors.
package symbol

import (
	"fmt"

	"github.com/mindmesh/simcore/simerr"
)

// Table is an append-only list of symbols with a reverse index. Once a
// symbol is interned its float code never changes, even if the table
// is later extended; indices are never reused or compacted.
type Table struct {
	symbols []string
	index   map[string]int
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Intern appends s if not already present and returns its float code.
// Intern is only called during authoring (declaring a variable's enum
// domain); it is not called during stepping.
func (t *Table) Intern(s string) float64 {
	if i, ok := t.index[s]; ok {
		return float64(i)
	}
	i := len(t.symbols)
	t.symbols = append(t.symbols, s)
	t.index[s] = i
	return float64(i)
}

// Code looks up the float code for an already-interned symbol,
// failing with ErrUnknownSymbol if s was never interned.
func (t *Table) Code(s string) (float64, error) {
	i, ok := t.index[s]
	if !ok {
		return 0, simerr.New("symbol.Code", simerr.ErrUnknownSymbol)
	}
	return float64(i), nil
}

// Symbol inverts Code, returning the symbol interned at float code f.
func (t *Table) Symbol(f float64) (string, error) {
	i := int(f)
	if i < 0 || i >= len(t.symbols) || float64(i) != f {
		return "", simerr.New("symbol.Symbol", simerr.ErrUnknownSymbol)
	}
	return t.symbols[i], nil
}

// Len returns the number of interned symbols.
func (t *Table) Len() int { return len(t.symbols) }

// Symbols returns every interned symbol, in intern order (their index
// in the returned slice equals their float code). Used by package
// persist to serialize the table without exposing its internals.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// Restore rebuilds a table from a previously-saved Symbols() slice,
// preserving each symbol's float code as its position in symbols.
func Restore(symbols []string) *Table {
	t := New()
	for _, s := range symbols {
		t.Intern(s)
	}
	return t
}

// String implements fmt.Stringer for diagnostics.
func (t *Table) String() string {
	return fmt.Sprintf("symbol.Table(%d symbols)", len(t.symbols))
}
