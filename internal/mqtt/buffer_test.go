package mqtt

import (
	"testing"
)

func push(rb *ringBuffer, n int) {
	for i := 0; i < n; i++ {
		rb.push(pending{topic: "t", payload: []byte{byte(i)}})
	}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got, dropped := rb.drain()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	push(rb, 5)
	if rb.len() != 5 {
		t.Fatalf("expected len 5, got %d", rb.len())
	}

	got, _ := rb.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if again, _ := rb.drain(); again != nil {
		t.Errorf("expected nil from second drain, got %d items", len(again))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	rb := newRingBuffer(5)
	push(rb, 8)

	if rb.len() != 5 {
		t.Fatalf("expected len to stay at capacity, got %d", rb.len())
	}
	got, dropped := rb.drain()
	if dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", dropped)
	}
	for i, msg := range got {
		if want := byte(i + 3); msg.payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, msg.payload[0])
		}
	}

	// Drop count resets with the drain.
	push(rb, 1)
	if _, dropped := rb.drain(); dropped != 0 {
		t.Errorf("expected dropped reset, got %d", dropped)
	}
}

func TestRingBufferWrapWithoutOverflow(t *testing.T) {
	rb := newRingBuffer(4)
	push(rb, 3)
	rb.drain()
	push(rb, 4)

	got, dropped := rb.drain()
	if dropped != 0 || len(got) != 4 {
		t.Fatalf("expected 4 items and no drops, got %d items %d dropped", len(got), dropped)
	}
	for i, msg := range got {
		if msg.payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, msg.payload[0])
		}
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(pending{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	got, _ := rb.drain()
	if got[0].topic != TopicSystem || got[0].qos != 1 || !got[0].retained {
		t.Errorf("unexpected message: %+v", got[0])
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	push(rb, 2)
	got, dropped := rb.drain()
	if len(got) != 1 || dropped != 1 {
		t.Errorf("expected 1 kept and 1 dropped, got %d and %d", len(got), dropped)
	}
}
