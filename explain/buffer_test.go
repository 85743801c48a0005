package explain

import "testing"

func TestTrackRespectsConfiguredLevel(t *testing.T) {
	b := New(Decisions)
	b.Track(Decisions, "agent decided")
	b.Track(Effects, "effect happened")

	entries := b.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() = %v, want only the Decisions-level entry", entries)
	}
	if entries[0].Message != "agent decided" {
		t.Fatalf("Entries()[0].Message = %q, want %q", entries[0].Message, "agent decided")
	}
}

func TestSilentLevelRecordsNothing(t *testing.T) {
	b := New(Silent)
	b.Decide("A", "move")
	b.Effect("something happened")
	if len(b.Entries()) != 0 {
		t.Fatalf("Entries() = %v, want none at Silent level", b.Entries())
	}
}

func TestNarrationHelpersFormatMessages(t *testing.T) {
	b := New(StateDeltas)
	b.Decide("A", "move")
	b.Value("A", "move", 1.5)
	b.Projection(2, "B", "wait")
	b.Effect("ready set true")
	b.StateDelta("world.ready", 0, 1)

	entries := b.Entries()
	if len(entries) != 5 {
		t.Fatalf("Entries() = %d entries, want 5", len(entries))
	}
	want := []string{
		"A decides move",
		"A: action_value(move) = 1.5",
		"horizon 2: project B taking wait",
		"effect: ready set true",
		"world.ready: 0 -> 1",
	}
	for i, w := range want {
		if entries[i].Message != w {
			t.Fatalf("Entries()[%d].Message = %q, want %q", i, entries[i].Message, w)
		}
	}
}

func TestEntriesReturnsIndependentCopy(t *testing.T) {
	b := New(Effects)
	b.Effect("one")
	entries := b.Entries()
	entries[0].Message = "mutated"

	again := b.Entries()
	if again[0].Message != "effect: one" {
		t.Fatalf("mutating Entries() result affected the buffer's own storage")
	}
}

func TestClearDiscardsEntries(t *testing.T) {
	b := New(Effects)
	b.Effect("one")
	b.Clear()
	if len(b.Entries()) != 0 {
		t.Fatalf("Entries() after Clear() = %v, want none", b.Entries())
	}
}
