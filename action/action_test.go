package action

import "testing"

func TestRootStripsParams(t *testing.T) {
	a := New("alice", "give").WithParam("target", 3)
	root := a.Root()
	if len(root.Params) != 0 {
		t.Fatalf("Root().Params = %v, want empty", root.Params)
	}
	if root.Subject != "alice" || root.Verb != "give" {
		t.Fatalf("Root() = %+v, want subject/verb preserved", root)
	}
}

func TestStringSortsParamsByName(t *testing.T) {
	a := New("alice", "give").WithParam("z", 1).WithParam("a", 2)
	want := "alice.give(a=2,z=1)"
	if got := a.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSetKeyIsOrderIndependent(t *testing.T) {
	s1 := Of(New("alice", "wave"), New("bob", "nod"))
	s2 := Of(New("bob", "nod"), New("alice", "wave"))
	if s1.Key() != s2.Key() {
		t.Fatalf("Key() differs by element order: %q vs %q", s1.Key(), s2.Key())
	}
}

func TestForSubjectFindsMatchingAction(t *testing.T) {
	s := Of(New("alice", "wave"), New("bob", "nod"))
	a, ok := s.ForSubject("bob")
	if !ok || a.Verb != "nod" {
		t.Fatalf("ForSubject(bob) = (%+v, %v), want (nod, true)", a, ok)
	}
	if _, ok := s.ForSubject("carol"); ok {
		t.Fatalf("ForSubject(carol) found an action that does not exist")
	}
}

func TestWithActionReplacesSameSubject(t *testing.T) {
	s := Of(New("alice", "wave"))
	s = s.WithAction(New("alice", "nod"))
	if len(s) != 1 {
		t.Fatalf("WithAction duplicated subject instead of replacing: %v", s)
	}
	a, _ := s.ForSubject("alice")
	if a.Verb != "nod" {
		t.Fatalf("WithAction did not replace: %+v", a)
	}
}
