package store

import (
	"errors"
	"fmt"
	"time"
)

// DutyRecord is one channel's entry in an hourly duty-cycle log.
type DutyRecord struct {
	Time              time.Time
	Channel           int
	Temperature       float64
	DutyPercent       int
	Toggles           int64
	CheckpointsActive int64
	CheckpointsTotal  int64
}

// FileName is the monthly log file the record is appended to.
func (r DutyRecord) FileName() string {
	return fmt.Sprintf("%04d%02dA%d.txt", r.Time.Year(), int(r.Time.Month()), r.Channel+1)
}

// Line renders the record as a log line.
func (r DutyRecord) Line() string {
	word := "toggles"
	if r.Toggles == 1 {
		word = "toggle"
	}
	return fmt.Sprintf("%s00  %.1f  %d%%  (%d %s)",
		r.Time.Format("20060102 15"), r.Temperature, r.DutyPercent, r.Toggles, word)
}

// LogIfDue counts a checkpoint and, when the log interval has passed since
// the last log, appends one record per logging channel to the medium. The
// first call always logs. Records are returned whenever a log was due, even
// if writing them failed; counters restart either way.
func (s *Store) LogIfDue(now time.Time) ([]DutyRecord, error) {
	s.checkpointsTotal++
	for i := range s.channels {
		if s.channels[i].IsOn {
			s.channels[i].CheckpointsActive++
		}
	}

	if !s.lastLog.IsZero() && now.Sub(s.lastLog) <= s.LogInterval {
		return nil, nil
	}
	s.lastLog = now

	var records []DutyRecord
	for i, ch := range s.channels {
		if !ch.IsLogging {
			continue
		}
		records = append(records, DutyRecord{
			Time:              now,
			Channel:           i,
			Temperature:       ch.Temperature,
			DutyPercent:       int(float64(ch.CheckpointsActive) / float64(s.checkpointsTotal) * 100),
			Toggles:           ch.ToggleCount,
			CheckpointsActive: ch.CheckpointsActive,
			CheckpointsTotal:  s.checkpointsTotal,
		})
	}

	err := s.appendRecords(records)

	s.checkpointsTotal = 0
	for i := range s.channels {
		s.channels[i].CheckpointsActive = 0
		s.channels[i].ToggleCount = 0
	}
	return records, err
}

func (s *Store) appendRecords(records []DutyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if s.medium == nil || !s.medium.Present() {
		return ErrMediumAbsent
	}
	var errs []error
	for _, r := range records {
		if err := appendLine(s.medium, r.FileName(), r.Line()); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrMediumWrite, r.FileName(), err))
		}
	}
	return errors.Join(errs...)
}

func appendLine(m Medium, name, line string) error {
	f, err := m.Append(name)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintln(f, line)
	return errors.Join(werr, f.Close())
}
