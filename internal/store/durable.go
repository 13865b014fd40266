package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/sweeney/thermoshield/internal/logic"
)

// Durable tier layout: two magic bytes followed by one fixed-size record per
// channel.
const (
	DurableVersion  byte = 0x01
	DurableRevision byte = 0x05

	durableHeaderSize = 2
	recordSize        = 6
	// DurableSize is the number of bytes the durable tier occupies.
	DurableSize = durableHeaderSize + logic.ChannelCount*recordSize
)

// Record field offsets.
const (
	offLow = iota
	offHigh
	offMask
	offLogging
	offCalibration
	offOverride
)

// Durable is the small byte-addressable tier that survives power loss.
type Durable interface {
	io.ReaderAt
	io.WriterAt
}

func recordOffset(index int) int64 {
	return int64(durableHeaderSize + index*recordSize)
}

func encodeDurable(channels [logic.ChannelCount]Channel) []byte {
	img := make([]byte, DurableSize)
	img[0] = DurableVersion
	img[1] = DurableRevision
	for i, ch := range channels {
		rec := img[recordOffset(i):]
		rec[offLow] = byte(int8(ch.Low))
		rec[offHigh] = byte(int8(ch.High))
		rec[offMask] = byte(ch.Actuators)
		if ch.IsLogging {
			rec[offLogging] = 1
		}
		rec[offCalibration] = byte(int8(math.Round(ch.Calibration * 10)))
		rec[offOverride] = byte(ch.Override)
	}
	return img
}

// durableRecord is one decoded channel record.
type durableRecord struct {
	Low, High   int
	Actuators   logic.Mask
	Logging     bool
	Calibration float64
	Override    Override
}

func decodeRecord(rec []byte) durableRecord {
	o := Override(rec[offOverride])
	if o > ForcedOn {
		o = Normal
	}
	return durableRecord{
		Low:         int(int8(rec[offLow])),
		High:        int(int8(rec[offHigh])),
		Actuators:   logic.Mask(rec[offMask]),
		Logging:     rec[offLogging] != 0,
		Calibration: float64(int8(rec[offCalibration])) / 10,
		Override:    o,
	}
}

func defaultRecord(index int) durableRecord {
	ch := DefaultChannel(index)
	return durableRecord{
		Low:         ch.Low,
		High:        ch.High,
		Actuators:   ch.Actuators,
		Logging:     ch.IsLogging,
		Calibration: ch.Calibration,
		Override:    ch.Override,
	}
}

// readDurable returns the decoded records, or ok=false when the tier is
// absent or does not carry the expected magic bytes. A record whose low
// threshold exceeds its high threshold is replaced by the channel defaults.
func readDurable(d Durable) (recs [logic.ChannelCount]durableRecord, ok bool, err error) {
	if d == nil {
		return recs, false, nil
	}
	img := make([]byte, DurableSize)
	n, err := d.ReadAt(img, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(img)) {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, io.EOF) {
			return recs, false, nil
		}
		return recs, false, err
	}
	if img[0] != DurableVersion || img[1] != DurableRevision {
		return recs, false, nil
	}
	for i := range recs {
		off := recordOffset(i)
		rec := decodeRecord(img[off : off+recordSize])
		if rec.Low > rec.High {
			log.Printf("store: durable record %d has low %d above high %d, using defaults", i+1, rec.Low, rec.High)
			rec = defaultRecord(i)
		}
		recs[i] = rec
	}
	return recs, true, nil
}

// FileDurable stores the durable tier in a file. The file is opened and
// closed within each call.
type FileDurable struct {
	Path string
}

func (f *FileDurable) ReadAt(p []byte, off int64) (int, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return 0, err
	}
	defer fh.Close()
	return fh.ReadAt(p, off)
}

func (f *FileDurable) WriteAt(p []byte, off int64) (int, error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return 0, err
	}
	fh, err := os.OpenFile(f.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := fh.WriteAt(p, off)
	if err == nil {
		err = fh.Sync()
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// MemDurable is an in-memory durable tier for tests. New instances read as
// erased memory (0xFF).
type MemDurable struct {
	Data []byte
	// Writes counts writes per byte offset.
	Writes   map[int64]int
	ReadErr  error
	WriteErr error
}

// NewMemDurable returns an erased tier of the given size.
func NewMemDurable(size int) *MemDurable {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &MemDurable{Data: data, Writes: make(map[int64]int)}
}

func (m *MemDurable) ReadAt(p []byte, off int64) (int, error) {
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	n := copy(p, m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemDurable) WriteAt(p []byte, off int64) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.Data)) {
		return 0, fmt.Errorf("write of %d bytes at %d beyond %d", len(p), off, len(m.Data))
	}
	copy(m.Data[off:], p)
	for i := range p {
		m.Writes[off+int64(i)]++
	}
	return len(p), nil
}

// ReadDurable decodes the durable tier into channel configurations. Readings
// and counters are left zero. ok is false when the tier is absent or erased.
func ReadDurable(d Durable) (channels [logic.ChannelCount]Channel, ok bool, err error) {
	recs, ok, err := readDurable(d)
	if !ok {
		return channels, false, err
	}
	for i, rec := range recs {
		channels[i] = Channel{
			Low:         rec.Low,
			High:        rec.High,
			Actuators:   rec.Actuators,
			IsLogging:   rec.Logging,
			Calibration: rec.Calibration,
			Override:    rec.Override,
		}
	}
	return channels, true, nil
}
