package cms

import "github.com/user-none/emcms/mixer"

const initialQueueCapacity = 1024

// frameQueue is a FIFO of rendered frames held between catch-up rendering
// and the next audio callback. It is a ring buffer that doubles its
// capacity instead of dropping frames. Callers provide locking.
type frameQueue struct {
	buf      []mixer.Frame
	readPos  int
	writePos int
	count    int
}

func newFrameQueue() *frameQueue {
	return &frameQueue{buf: make([]mixer.Frame, initialQueueCapacity)}
}

// Push appends f at the tail.
func (q *frameQueue) Push(f mixer.Frame) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[q.writePos] = f
	q.writePos = (q.writePos + 1) % len(q.buf)
	q.count++
}

// Pop removes and returns the head. ok is false when the queue is empty.
func (q *frameQueue) Pop() (f mixer.Frame, ok bool) {
	if q.count == 0 {
		return mixer.Frame{}, false
	}
	f = q.buf[q.readPos]
	q.readPos = (q.readPos + 1) % len(q.buf)
	q.count--
	return f, true
}

// Len returns the number of queued frames.
func (q *frameQueue) Len() int {
	return q.count
}

// grow doubles the capacity, unwrapping the contents to start at index 0.
func (q *frameQueue) grow() {
	size := len(q.buf) * 2
	if size == 0 {
		size = initialQueueCapacity
	}
	next := make([]mixer.Frame, size)

	// Copy data out of the old buffer (may wrap around)
	if q.count > 0 {
		firstChunk := len(q.buf) - q.readPos
		if firstChunk >= q.count {
			copy(next, q.buf[q.readPos:q.readPos+q.count])
		} else {
			copy(next, q.buf[q.readPos:])
			copy(next[firstChunk:], q.buf[:q.count-firstChunk])
		}
	}
	q.buf = next
	q.readPos = 0
	q.writePos = q.count
}
