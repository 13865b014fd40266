// Package store owns the per-channel configuration and state: it loads the
// config file and the durable tier at startup, turns readings into actuator
// commands, tracks overrides and appends hourly duty-cycle logs.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/sweeney/thermoshield/internal/logic"
)

// DefaultLogInterval is the minimum time between duty-cycle logs.
const DefaultLogInterval = time.Hour

// Actuators is the part of the actuator bank the store drives.
type Actuators interface {
	Activate(id, channel int) error
	Deactivate(id, channel int) error
}

// Store is the channel array plus its persistence tiers.
type Store struct {
	bank    Actuators
	durable Durable
	medium  Medium

	channels [logic.ChannelCount]Channel
	index    int

	LogInterval      time.Duration
	lastLog          time.Time
	checkpointsTotal int64
}

// New returns a store holding compile-time defaults. durable and medium may
// be nil when the tier is not fitted.
func New(bank Actuators, durable Durable, medium Medium) *Store {
	s := &Store{
		bank:        bank,
		durable:     durable,
		medium:      medium,
		LogInterval: DefaultLogInterval,
	}
	for i := range s.channels {
		s.channels[i] = DefaultChannel(i)
	}
	return s
}

// Begin loads the configuration. A config file on the medium wins over the
// durable tier, which wins over the defaults. Overrides are always restored
// from a valid durable tier. Afterwards a missing config file is created and
// the durable tier is rewritten. Rejected config lines leave that channel at
// its defaults; their errors are returned joined. Missing tiers are not
// errors.
func (s *Store) Begin() error {
	var parseErr error
	fromFile := false
	mediumPresent := s.medium != nil && s.medium.Present()

	if mediumPresent {
		var exists bool
		exists, parseErr = s.loadConfigFile()
		fromFile = exists
	} else {
		log.Printf("store: medium absent, skipping %s", ConfigFileName)
	}

	recs, valid, err := readDurable(s.durable)
	if err != nil {
		log.Printf("store: durable read failed: %v", err)
	}
	if valid {
		for i, rec := range recs {
			ch := &s.channels[i]
			if !fromFile {
				ch.Low = rec.Low
				ch.High = rec.High
				ch.Actuators = rec.Actuators
				ch.IsLogging = rec.Logging
				ch.Calibration = rec.Calibration
			}
			ch.Override = rec.Override
		}
		if !fromFile {
			log.Printf("store: channels restored from durable tier")
		}
	} else if !fromFile {
		log.Printf("store: no configuration found, using defaults")
	}

	s.index = s.firstActive()

	if mediumPresent && !fromFile {
		if err := s.writeConfigFile(); err != nil {
			log.Printf("store: %v", err)
		}
	}
	if err := s.writeDurable(); err != nil {
		log.Printf("store: %v", err)
	}

	if parseErr != nil {
		return fmt.Errorf("%s: %w", ConfigFileName, parseErr)
	}
	return nil
}

// loadConfigFile applies the config file to the channel array. exists is
// false when there is no readable file.
func (s *Store) loadConfigFile() (exists bool, err error) {
	f, err := s.medium.Open(ConfigFileName)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("store: open %s: %v", ConfigFileName, err)
		}
		return false, nil
	}
	defer f.Close()

	lines, err := ParseConfig(f)
	for _, lc := range lines {
		lc.Apply(&s.channels[lc.Channel])
	}
	log.Printf("store: %d channel lines read from %s", len(lines), ConfigFileName)
	return true, err
}

func (s *Store) writeConfigFile() error {
	f, err := s.medium.Create(ConfigFileName)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrMediumWrite, ConfigFileName, err)
	}
	werr := WriteConfig(f, s.channels[:])
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrMediumWrite, ConfigFileName, err)
	}
	log.Printf("store: wrote default %s", ConfigFileName)
	return nil
}

func (s *Store) writeDurable() error {
	if s.durable == nil {
		return nil
	}
	if _, err := s.durable.WriteAt(encodeDurable(s.channels), 0); err != nil {
		return fmt.Errorf("%w: durable tier: %v", ErrMediumWrite, err)
	}
	return nil
}

func checkIndex(i int) error {
	if i < 0 || i >= logic.ChannelCount {
		return fmt.Errorf("%w: channel index %d", ErrRange, i)
	}
	return nil
}

// SetTemperature records a reading for channel i and drives its actuators.
// Readings below TemperatureFloor are stored as Disconnected. toggled
// reports whether the channel's on/off state flipped.
func (s *Store) SetTemperature(i int, t float64) (toggled bool, err error) {
	if err := checkIndex(i); err != nil {
		return false, err
	}
	ch := &s.channels[i]

	next := t + ch.Calibration
	if t < TemperatureFloor {
		next = Disconnected
	}
	if next != ch.Temperature {
		ch.Temperature = next
		ch.IsDirty = true
	}

	var errs []error
	for _, id := range ch.Actuators.IDs() {
		switch {
		case ch.Override == ForcedOn || (ch.Override == Normal && ch.Temperature <= float64(ch.Low)):
			if err := s.bank.Activate(id, i); err != nil {
				errs = append(errs, err)
			}
			if !ch.IsOn {
				ch.IsOn = true
				ch.ToggleCount++
				ch.IsDirty = true
				toggled = true
			}
		case ch.Override == ForcedOff || ch.Temperature >= float64(ch.High):
			if err := s.bank.Deactivate(id, i); err != nil {
				errs = append(errs, err)
			}
			if ch.IsOn {
				ch.IsOn = false
				ch.ToggleCount++
				ch.IsDirty = true
				toggled = true
			}
		}
	}
	return toggled, errors.Join(errs...)
}

// Advance moves the focus to the next active channel, wrapping around. It is
// a no-op when no channel is active.
func (s *Store) Advance() {
	if !s.IsAnyActiveChannel() {
		return
	}
	for {
		s.index = (s.index + 1) % logic.ChannelCount
		if s.channels[s.index].Active() {
			s.channels[s.index].IsDirty = true
			return
		}
	}
}

// firstActive returns the lowest active channel, or 0 when none is active.
func (s *Store) firstActive() int {
	for i, ch := range s.channels {
		if ch.Active() {
			return i
		}
	}
	return 0
}

// Index returns the focused channel.
func (s *Store) Index() int {
	return s.index
}

// IsAnyActiveChannel reports whether any channel drives actuators or logs.
func (s *Store) IsAnyActiveChannel() bool {
	for _, ch := range s.channels {
		if ch.Active() {
			return true
		}
	}
	return false
}

// IsActive reports whether channel i is sampled.
func (s *Store) IsActive(i int) bool {
	return checkIndex(i) == nil && s.channels[i].Active()
}

// Channel returns a copy of channel i.
func (s *Store) Channel(i int) Channel {
	if checkIndex(i) != nil {
		return Channel{}
	}
	return s.channels[i]
}

// Channels returns a copy of the channel array.
func (s *Store) Channels() [logic.ChannelCount]Channel {
	return s.channels
}

// ClearDirty marks channel i as rendered.
func (s *Store) ClearDirty(i int) {
	if checkIndex(i) == nil {
		s.channels[i].IsDirty = false
	}
}

// SetItemState sets the override of channel i and persists it to the durable
// tier. Only the override byte of the channel record is rewritten. The
// in-memory change stands even when the write fails.
func (s *Store) SetItemState(i int, o Override) (OverrideChange, error) {
	if err := checkIndex(i); err != nil {
		return OverrideChange{}, err
	}
	if o > ForcedOn {
		return OverrideChange{}, fmt.Errorf("%w: override %d", ErrRange, o)
	}
	change := s.channels[i].setOverride(o, i)
	if !change.Changed() || s.durable == nil {
		return change, nil
	}
	if _, err := s.durable.WriteAt([]byte{byte(o)}, recordOffset(i)+offOverride); err != nil {
		return change, fmt.Errorf("%w: override for channel %d: %v", ErrMediumWrite, i+1, err)
	}
	return change, nil
}

// CycleOverride advances channel i to the next override mode.
func (s *Store) CycleOverride(i int) (OverrideChange, error) {
	if err := checkIndex(i); err != nil {
		return OverrideChange{}, err
	}
	return s.SetItemState(i, s.channels[i].Override.Next())
}
