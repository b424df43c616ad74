package cms

import (
	"testing"

	"github.com/user-none/emcms/mixer"
)

func TestFrameQueue_OrderAcrossGrowth(t *testing.T) {
	q := newFrameQueue()

	// Offset the read position so the growth has to unwrap the ring.
	for i := 0; i < 100; i++ {
		q.Push(mixer.Frame{Left: -1})
	}
	for i := 0; i < 100; i++ {
		q.Pop()
	}

	const n = initialQueueCapacity*3 + 7
	for i := 0; i < n; i++ {
		q.Push(mixer.Frame{Left: float32(i), Right: float32(-i)})
	}
	if q.Len() != n {
		t.Fatalf("Len: got %d, want %d", q.Len(), n)
	}
	for i := 0; i < n; i++ {
		f, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue empty early", i)
		}
		if f.Left != float32(i) || f.Right != float32(-i) {
			t.Fatalf("Pop %d: got %+v", i, f)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on empty queue reported a frame")
	}
}

func TestFrameQueue_InterleavedPushPop(t *testing.T) {
	q := newFrameQueue()
	next := 0
	expect := 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 37; i++ {
			q.Push(mixer.Frame{Left: float32(next)})
			next++
		}
		for i := 0; i < 29; i++ {
			f, ok := q.Pop()
			if !ok || f.Left != float32(expect) {
				t.Fatalf("round %d: got (%+v, %v), want %d", round, f, ok, expect)
			}
			expect++
		}
	}
	if q.Len() != next-expect {
		t.Errorf("Len: got %d, want %d", q.Len(), next-expect)
	}
}

func TestFrameQueue_ZeroValue(t *testing.T) {
	var q frameQueue
	q.Push(mixer.Frame{Left: 5})
	if f, ok := q.Pop(); !ok || f.Left != 5 {
		t.Errorf("zero-value queue: got (%+v, %v)", f, ok)
	}
}
