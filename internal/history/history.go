// Package history keeps duty-cycle records beyond the removable medium.
package history

import (
	"context"
	"errors"

	"github.com/sweeney/thermoshield/internal/store"
)

// Sink receives each hourly batch of duty-cycle records.
type Sink interface {
	Record(ctx context.Context, records []store.DutyRecord) error
	Close() error
}

// Multi fans records out to every sink. One failing sink does not stop the
// others.
type Multi []Sink

func (m Multi) Record(ctx context.Context, records []store.DutyRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
