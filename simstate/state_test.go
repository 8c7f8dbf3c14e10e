package simstate

import "testing"

func TestClearSweepPreservesPairsAndClearsSets(t *testing.T) {
	s := New()
	a, b := Coord{0, 0}, Coord{0, 1}
	s.MarkMoved(a)
	s.MarkReacted(b)
	s.MarkNotReacted(a, b)
	s.Pair(a, b)

	s.ClearSweep()

	if s.HasMoved(a) || s.HasReacted(b) || s.IsNotReacted(a, b) {
		t.Errorf("ClearSweep must clear moved/reacted/notReacted")
	}
	if !s.IsPairedWith(a, b) {
		t.Errorf("ClearSweep must not clear intermediatePairs")
	}
}

func TestNotReactedIsSymmetric(t *testing.T) {
	s := New()
	a, b := Coord{1, 1}, Coord{1, 2}
	s.MarkNotReacted(a, b)
	if !s.IsNotReacted(b, a) {
		t.Errorf("not-reacted marking must be checked both orderings")
	}
}

func TestPairAndUnpairSymmetric(t *testing.T) {
	s := New()
	a, b := Coord{0, 0}, Coord{0, 1}
	s.Pair(a, b)
	if p, ok := s.PartnerOf(a); !ok || p != b {
		t.Errorf("PartnerOf(a) = %v,%v want %v,true", p, ok, b)
	}
	if p, ok := s.PartnerOf(b); !ok || p != a {
		t.Errorf("PartnerOf(b) = %v,%v want %v,true", p, ok, a)
	}
	s.Unpair(a, b)
	if _, ok := s.PartnerOf(a); ok {
		t.Errorf("Unpair must remove a->b")
	}
	if _, ok := s.PartnerOf(b); ok {
		t.Errorf("Unpair must remove b->a")
	}
}

func TestMovedReactedMutualExclusionIsCallerEnforced(t *testing.T) {
	// The engine never marks the same coordinate both moved and reacted in
	// a sweep; this test documents that the sets are independent so a bug
	// in the engine would be caught by checking both, not by State itself
	// refusing the second mark.
	s := New()
	c := Coord{2, 2}
	s.MarkReacted(c)
	if s.HasMoved(c) {
		t.Errorf("marking reacted must not imply moved")
	}
}
