package symbol

import (
	"testing"

	"github.com/mindmesh/simcore/simerr"
)

func TestInternIsIdempotent(t *testing.T) {
	tbl := New()
	a := tbl.Intern("red")
	b := tbl.Intern("blue")
	c := tbl.Intern("red")
	if a != c {
		t.Fatalf("re-interning \"red\" changed its code: %v != %v", a, c)
	}
	if a == b {
		t.Fatalf("distinct symbols got the same code")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
}

func TestCodeAndSymbolRoundTrip(t *testing.T) {
	tbl := New()
	tbl.Intern("red")
	tbl.Intern("blue")

	code, err := tbl.Code("blue")
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	sym, err := tbl.Symbol(code)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym != "blue" {
		t.Fatalf("Symbol(Code(%q)) = %q", "blue", sym)
	}
}

func TestCodeUnknownSymbol(t *testing.T) {
	tbl := New()
	tbl.Intern("red")
	if _, err := tbl.Code("green"); !simerr.Is(err, simerr.ErrUnknownSymbol) {
		t.Fatalf("Code(unknown) error = %v, want ErrUnknownSymbol", err)
	}
}

func TestSymbolOutOfRange(t *testing.T) {
	tbl := New()
	tbl.Intern("red")
	if _, err := tbl.Symbol(5); !simerr.Is(err, simerr.ErrUnknownSymbol) {
		t.Fatalf("Symbol(5) error = %v, want ErrUnknownSymbol", err)
	}
	if _, err := tbl.Symbol(0.5); !simerr.Is(err, simerr.ErrUnknownSymbol) {
		t.Fatalf("Symbol(0.5) error = %v, want ErrUnknownSymbol", err)
	}
}

func TestRestorePreservesCodes(t *testing.T) {
	tbl := New()
	tbl.Intern("red")
	tbl.Intern("blue")
	tbl.Intern("green")

	restored := Restore(tbl.Symbols())
	for _, s := range []string{"red", "blue", "green"} {
		want, err := tbl.Code(s)
		if err != nil {
			t.Fatalf("Code(%q): %v", s, err)
		}
		got, err := restored.Code(s)
		if err != nil {
			t.Fatalf("restored Code(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("restored code for %q = %v, want %v", s, got, want)
		}
	}
}
