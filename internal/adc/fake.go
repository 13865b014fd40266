package adc

import "github.com/pkg/errors"

// FakeReader returns scripted raw values per channel.
type FakeReader struct {
	// Values holds the scripted readings per channel. Each ReadRaw consumes
	// the next value; the last value repeats once exhausted.
	Values map[int][]int

	// Errors, if set for a channel, is returned by ReadRaw.
	Errors map[int]error

	// Reads counts ReadRaw calls per channel.
	Reads map[int]int

	index map[int]int
}

// NewFakeReader creates an empty FakeReader.
func NewFakeReader() *FakeReader {
	return &FakeReader{
		Values: make(map[int][]int),
		Errors: make(map[int]error),
		Reads:  make(map[int]int),
		index:  make(map[int]int),
	}
}

// Set scripts the readings of channel and rewinds it.
func (f *FakeReader) Set(channel int, values ...int) {
	f.Values[channel] = values
	f.index[channel] = 0
}

// ReadRaw returns the next scripted value for channel.
func (f *FakeReader) ReadRaw(channel int) (int, error) {
	f.Reads[channel]++
	if err := f.Errors[channel]; err != nil {
		return 0, err
	}
	vals := f.Values[channel]
	if len(vals) == 0 {
		return 0, errors.Errorf("no samples configured for channel %d", channel)
	}
	i := f.index[channel]
	v := vals[i]
	if i < len(vals)-1 {
		f.index[channel] = i + 1
	}
	return v, nil
}
