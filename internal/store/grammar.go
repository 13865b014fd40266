package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/thermoshield/internal/logic"
)

// ConfigFileName is the configuration file on the removable medium.
const ConfigFileName = "config.txt"

// Durable thresholds are stored as signed bytes.
const (
	minThreshold = math.MinInt8
	maxThreshold = math.MaxInt8
)

// configHeader documents the grammar at the top of a generated config file.
// Lines that do not start with "CH" are ignored by the parser.
var configHeader = []string{
	"# thermoshield channel configuration",
	"#",
	"# CH<n> [C<+|-><tenths>] L:<ON|OFF> [<low> <high> [A: <id> ...]]",
	"#",
	"#   CH<n>        channel 1..8",
	"#   C+4          calibration offset in tenths of a degree (+0.4 C)",
	"#   L:ON         append hourly duty-cycle logs for this channel",
	"#   <low> <high> whole-degree thresholds, low <= high",
	"#   A: 1 2       actuators driven by this channel, 1..8",
	"#",
	"# Heat below <low>, stop at or above <high>. Without thresholds the",
	"# channel drives no actuators. Example:",
	"#",
	"#   CH4 C-2 L:ON 18 21 A: 3 4",
	"#",
}

// LineConfig is one parsed configuration line.
type LineConfig struct {
	// Channel is zero-based.
	Channel        int
	Calibration    float64
	HasCalibration bool
	Logging        bool
	HasThresholds  bool
	Low            int
	High           int
	Actuators      logic.Mask
}

// Apply copies the parsed configuration into ch. A line without thresholds
// clears the actuator mask and leaves the thresholds as they were.
func (lc LineConfig) Apply(ch *Channel) {
	if lc.HasCalibration {
		ch.Calibration = lc.Calibration
	}
	ch.IsLogging = lc.Logging
	ch.Actuators = lc.Actuators
	if lc.HasThresholds {
		ch.Low = lc.Low
		ch.High = lc.High
	}
}

// ParseLine parses a single configuration line. ok is false for lines that
// are not channel lines (comments, blanks) and carry no configuration.
func ParseLine(line string) (lc LineConfig, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "CH") {
		return LineConfig{}, false, nil
	}
	fields := strings.Fields(line)

	n, err := strconv.Atoi(fields[0][2:])
	if err != nil {
		return LineConfig{}, true, fmt.Errorf("%w: bad channel tag %q", ErrParse, fields[0])
	}
	if n < 1 || n > logic.ChannelCount {
		return LineConfig{}, true, fmt.Errorf("%w: channel %d not in 1..%d", ErrRange, n, logic.ChannelCount)
	}
	lc.Channel = n - 1
	rest := fields[1:]

	if len(rest) > 0 && (strings.HasPrefix(rest[0], "C+") || strings.HasPrefix(rest[0], "C-")) {
		tenths, err := strconv.Atoi(rest[0][2:])
		if err != nil || tenths < 0 {
			return LineConfig{}, true, fmt.Errorf("%w: bad calibration %q", ErrParse, rest[0])
		}
		if tenths > maxThreshold {
			return LineConfig{}, true, fmt.Errorf("%w: calibration %q", ErrRange, rest[0])
		}
		lc.Calibration = float64(tenths) / 10
		if rest[0][1] == '-' {
			lc.Calibration = -lc.Calibration
		}
		lc.HasCalibration = true
		rest = rest[1:]
	}

	if len(rest) == 0 || !strings.HasPrefix(rest[0], "L:") {
		return LineConfig{}, true, fmt.Errorf("%w: missing L:ON or L:OFF", ErrParse)
	}
	switch rest[0][2:] {
	case "ON":
		lc.Logging = true
	case "OFF":
		lc.Logging = false
	default:
		return LineConfig{}, true, fmt.Errorf("%w: bad logging switch %q", ErrParse, rest[0])
	}
	rest = rest[1:]

	if len(rest) == 0 {
		return lc, true, nil
	}
	if len(rest) < 2 {
		return LineConfig{}, true, fmt.Errorf("%w: low threshold without high", ErrParse)
	}
	if lc.Low, err = parseThreshold(rest[0]); err != nil {
		return LineConfig{}, true, err
	}
	if lc.High, err = parseThreshold(rest[1]); err != nil {
		return LineConfig{}, true, err
	}
	if lc.Low > lc.High {
		return LineConfig{}, true, fmt.Errorf("%w: low %d above high %d", ErrParse, lc.Low, lc.High)
	}
	lc.HasThresholds = true
	rest = rest[2:]

	if len(rest) == 0 {
		return lc, true, nil
	}
	if !strings.HasPrefix(rest[0], "A:") {
		return LineConfig{}, true, fmt.Errorf("%w: unexpected %q", ErrParse, rest[0])
	}
	ids := rest[1:]
	if first := rest[0][2:]; first != "" {
		ids = append([]string{first}, ids...)
	}
	for _, tok := range ids {
		id, err := strconv.Atoi(tok)
		if err != nil {
			return LineConfig{}, true, fmt.Errorf("%w: bad actuator id %q", ErrParse, tok)
		}
		if id < 1 || id > logic.ChannelCount {
			return LineConfig{}, true, fmt.Errorf("%w: actuator %d not in 1..%d", ErrRange, id, logic.ChannelCount)
		}
		lc.Actuators = lc.Actuators.With(id - 1)
	}
	return lc, true, nil
}

func parseThreshold(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: bad threshold %q", ErrParse, tok)
	}
	if v < minThreshold || v > maxThreshold {
		return 0, fmt.Errorf("%w: threshold %d", ErrRange, v)
	}
	return v, nil
}

// ParseConfig reads a whole configuration file. Valid lines are returned in
// file order; every rejected line contributes a *LineError to the joined error.
func ParseConfig(r io.Reader) ([]LineConfig, error) {
	var (
		lines []LineConfig
		errs  []error
	)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := sc.Text()
		lc, ok, err := ParseLine(text)
		if err != nil {
			errs = append(errs, &LineError{Line: n, Text: strings.TrimSpace(text), Err: err})
			continue
		}
		if ok {
			lines = append(lines, lc)
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return lines, errors.Join(errs...)
}

// FormatLine renders a channel as a configuration line that ParseLine reads
// back to the same configuration.
func FormatLine(index int, ch Channel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CH%d ", index+1)

	tenths := int(math.Round(ch.Calibration * 10))
	if tenths < 0 {
		fmt.Fprintf(&b, "C-%d", -tenths)
	} else {
		fmt.Fprintf(&b, "C+%d", tenths)
	}

	if ch.IsLogging {
		b.WriteString(" L:ON")
	} else {
		b.WriteString(" L:OFF")
	}

	fmt.Fprintf(&b, " %d %d", ch.Low, ch.High)
	if ch.Actuators != 0 {
		b.WriteString(" A:" + ch.Actuators.String())
	}
	return b.String()
}

// WriteConfig writes the documented header followed by one line per channel.
func WriteConfig(w io.Writer, channels []Channel) error {
	for _, line := range configHeader {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for i, ch := range channels {
		if _, err := fmt.Fprintln(w, FormatLine(i, ch)); err != nil {
			return err
		}
	}
	return nil
}
