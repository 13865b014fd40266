package mqtt

import "log"

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 256

// pending is a serialized message waiting for the broker.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO holding messages while disconnected.
// When full, the oldest message is dropped.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	buf     []pending
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]pending, capacity)}
}

func (r *ringBuffer) push(msg pending) {
	if r.count == len(r.buf) {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.buf))
		}
		r.dropped++
	} else {
		r.count++
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
}

// drain returns the buffered messages oldest first along with the number of
// messages that were dropped, and empties the buffer.
func (r *ringBuffer) drain() ([]pending, int) {
	dropped := r.dropped
	r.dropped = 0
	if r.count == 0 {
		r.head = 0
		return nil, dropped
	}

	out := make([]pending, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	r.count = 0
	r.head = 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}
