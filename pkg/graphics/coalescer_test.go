package graphics

import "testing"

func occupiedCount(c *coalescer) int {
	n := 0
	for _, r := range c.bank {
		if r.occupied {
			n++
		}
	}
	return n
}

// TestCoalescerMergesVerticalStripes is the spec's "coalescing" scenario:
// two appends for image 1, rows 0..1 then 1..2, same columns and cell
// size, end up as a single rect spanning rows 0..2.
func TestCoalescerMergesVerticalStripes(t *testing.T) {
	c := newCoalescer()
	c.append(1, 0, 0, 4, 0, 1, 0, 0, 10, 20, false, nil)
	c.append(1, 0, 0, 4, 1, 2, 0, 20, 10, 20, false, nil)

	if n := occupiedCount(c); n != 1 {
		t.Fatalf("occupied slots = %d, want 1", n)
	}
	var got pendingRect
	for _, r := range c.bank {
		if r.occupied {
			got = r
		}
	}
	if got.startRow != 0 || got.endRow != 2 {
		t.Errorf("merged rect rows = [%d,%d), want [0,2)", got.startRow, got.endRow)
	}
}

func TestCoalescerDoesNotMergeDifferentColumns(t *testing.T) {
	c := newCoalescer()
	c.append(1, 0, 0, 4, 0, 1, 0, 0, 10, 20, false, nil)
	c.append(1, 0, 2, 6, 1, 2, 20, 20, 10, 20, false, nil)

	if n := occupiedCount(c); n != 2 {
		t.Errorf("occupied slots = %d, want 2 (non-contiguous columns should not merge)", n)
	}
}

func TestCoalescerEmptyRectIsNoOp(t *testing.T) {
	c := newCoalescer()
	c.append(1, 0, 0, 0, 0, 0, 0, 0, 10, 20, false, nil)
	c.append(0, 0, 0, 4, 0, 1, 0, 0, 10, 20, false, nil)
	if n := occupiedCount(c); n != 0 {
		t.Errorf("occupied slots = %d, want 0 for empty-rect/zero-image appends", n)
	}
}

func TestCoalescerEvictsLowestBottomWhenFull(t *testing.T) {
	c := newCoalescer()
	for i := 0; i < coalescerBankSize; i++ {
		c.append(uint32(i+1), 0, 0, 1, 0, 1, 0, i*20, 10, 20, false, nil)
	}
	if n := occupiedCount(c); n != coalescerBankSize {
		t.Fatalf("occupied slots = %d, want %d", n, coalescerBankSize)
	}

	// The rect with the greatest bottomPix (the last one appended, at
	// y=19*20) should be evicted to make room for a new rectangle.
	var evicted []pendingRect
	c.append(uint32(coalescerBankSize+100), 0, 0, 1, 0, 1, 0, 9999, 10, 20, false,
		func(r pendingRect) { evicted = append(evicted, r) })

	for _, r := range c.bank {
		if r.imageID == uint32(coalescerBankSize) {
			t.Errorf("expected the rect with the lowest bottom to be evicted, but it is still present")
		}
	}

	if len(evicted) != 1 || evicted[0].imageID != uint32(coalescerBankSize) {
		t.Fatalf("evicted = %v, want exactly the rect with the greatest bottom pixel drawn before reuse", evicted)
	}
}

func TestCoalescerFlushClearsBank(t *testing.T) {
	c := newCoalescer()
	c.append(1, 0, 0, 4, 0, 1, 0, 0, 10, 20, false, nil)

	var drawn []pendingRect
	c.flush(func(r pendingRect) { drawn = append(drawn, r) })

	if len(drawn) != 1 {
		t.Fatalf("drawn = %d rects, want 1", len(drawn))
	}
	if occupiedCount(c) != 0 {
		t.Error("bank should be empty after flush")
	}
}
