package projection

import "testing"

func TestDeduperMarkAndSeen(t *testing.T) {
	d := NewDeduper()

	if d.Seen("ev-1") {
		t.Error("unmarked id reported as seen")
	}

	d.Mark("ev-1")
	if !d.Seen("ev-1") {
		t.Error("marked id not reported as seen")
	}

	d.Mark("ev-1")
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after re-marking same id", d.Len())
	}
}

func TestDeduperEmptyID(t *testing.T) {
	d := NewDeduper()

	// Events without ids are non-deduplicable: never seen, never stored.
	d.Mark("")
	if d.Seen("") {
		t.Error("empty id reported as seen")
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after marking empty id", d.Len())
	}
}
