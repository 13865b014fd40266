package gpio

import (
	"errors"
	"testing"
)

func TestFakeInputRead(t *testing.T) {
	f := NewFakeInput(true, false, true)

	want := []bool{true, false, true, true}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestFakeInputNoSamples(t *testing.T) {
	f := NewFakeInput()

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeInputError(t *testing.T) {
	f := NewFakeInput(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeInputCloseAndReset(t *testing.T) {
	f := NewFakeInput(true, false)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Read()
	f.Reset()
	if f.Closed {
		t.Error("Reset should clear Closed")
	}
	v, _ := f.Read()
	if v != true {
		t.Errorf("after reset: expected true, got %v", v)
	}
}

func TestFakeOutputRecordsWrites(t *testing.T) {
	o := NewFakeOutput(true)

	if !o.High {
		t.Error("expected initial level high")
	}
	o.Set(false)
	o.Set(true)
	o.Set(true)

	if len(o.Writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(o.Writes))
	}
	if !o.High {
		t.Error("expected final level high")
	}
}

func TestFakeOutputSetError(t *testing.T) {
	o := NewFakeOutput(false)
	o.SetError = errors.New("line busy")

	if err := o.Set(true); err == nil {
		t.Error("expected error")
	}
	if o.High {
		t.Error("level must not change on error")
	}
	if len(o.Writes) != 0 {
		t.Errorf("expected no recorded writes, got %d", len(o.Writes))
	}
}

func TestWithPolarity(t *testing.T) {
	direct := NewFakeOutput(false)
	if WithPolarity(direct, true) != Output(direct) {
		t.Error("active-high output should be returned unchanged")
	}

	raw := NewFakeOutput(true)
	inverted := WithPolarity(raw, false)
	inverted.Set(true)
	if raw.High {
		t.Error("active-low output should drive low when on")
	}
	inverted.Set(false)
	if !raw.High {
		t.Error("active-low output should drive high when off")
	}
	inverted.Close()
	if !raw.Closed {
		t.Error("Close should reach the wrapped output")
	}
}
