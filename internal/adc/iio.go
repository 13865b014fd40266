package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IIO reads in_voltage<N>_raw files of an IIO device directory.
type IIO struct {
	Dir string

	// Channels maps a sensor channel to the IIO voltage index. Nil means identity.
	Channels []int
}

// NewIIO creates a reader for the device directory and checks it exists.
func NewIIO(dir string, channels []int) (*IIO, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to init IIO adc (%s)", dir)
	}
	return &IIO{Dir: dir, Channels: channels}, nil
}

func (r *IIO) path(channel int) (string, error) {
	idx := channel
	if r.Channels != nil {
		if channel < 0 || channel >= len(r.Channels) {
			return "", errors.Errorf("adc channel %d not mapped", channel)
		}
		idx = r.Channels[channel]
	}
	return filepath.Join(r.Dir, fmt.Sprintf("in_voltage%d_raw", idx)), nil
}

// ReadRaw returns the raw conversion for channel.
func (r *IIO) ReadRaw(channel int) (int, error) {
	p, err := r.path(channel)
	if err != nil {
		return 0, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return 0, errors.Wrapf(err, "failed reading adc channel %d (%s)", channel, p)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, errors.Wrapf(err, "failed converting adc readout %q for channel %d", strings.TrimSpace(string(b)), channel)
	}
	if v < 0 {
		return 0, errors.Errorf("negative adc readout %d for channel %d", v, channel)
	}
	return v, nil
}
