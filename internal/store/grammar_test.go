package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermoshield/internal/logic"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want LineConfig
	}{
		{
			line: "CH4 C-2 L:ON 18 21 A: 3 4",
			want: LineConfig{Channel: 3, Calibration: -0.2, HasCalibration: true, Logging: true,
				HasThresholds: true, Low: 18, High: 21, Actuators: logic.MaskOf(2, 3)},
		},
		{
			line: "CH1 L:OFF",
			want: LineConfig{Channel: 0},
		},
		{
			line: "CH2 C+5 L:ON 10 12",
			want: LineConfig{Channel: 1, Calibration: 0.5, HasCalibration: true, Logging: true,
				HasThresholds: true, Low: 10, High: 12},
		},
		{
			line: "  CH3 L:ON -5 -5 A:1 8  ",
			want: LineConfig{Channel: 2, Logging: true, HasThresholds: true, Low: -5, High: -5,
				Actuators: logic.MaskOf(0, 7)},
		},
		{
			line: "CH8 L:ON 20 22 A:",
			want: LineConfig{Channel: 7, Logging: true, HasThresholds: true, Low: 20, High: 22},
		},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineIgnoresNonChannelLines(t *testing.T) {
	for _, line := range []string{"", "   ", "# CH1 L:ON", "ch1 L:ON", "* comment"} {
		_, ok, err := ParseLine(line)
		assert.NoError(t, err, line)
		assert.False(t, ok, line)
	}
}

func TestParseLineRejects(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"CH9 L:ON 20 22 A:1", ErrRange},
		{"CH0 L:ON", ErrRange},
		{"CHx L:ON", ErrParse},
		{"CH1 C+a L:ON", ErrParse},
		{"CH1 20 22", ErrParse},
		{"CH1 L:MAYBE", ErrParse},
		{"CH1 L:ON 22 20", ErrParse},
		{"CH1 L:ON 20", ErrParse},
		{"CH1 L:ON 20 x", ErrParse},
		{"CH1 L:ON 20 22 A:9", ErrRange},
		{"CH1 L:ON 20 22 A: 1 0", ErrRange},
		{"CH1 L:ON 20 22 B:1", ErrParse},
		{"CH1 L:ON 200 220", ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, ok, err := ParseLine(tt.line)
			assert.True(t, ok)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseConfigCollectsLineErrors(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"CH1 L:ON 10 12 A:2",
		"CH9 L:ON",
		"CH2 L:ON 30 20",
		"CH3 L:OFF",
	}, "\n")

	lines, err := ParseConfig(strings.NewReader(input))
	require.Len(t, lines, 2)
	assert.Equal(t, 0, lines[0].Channel)
	assert.Equal(t, 2, lines[1].Channel)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRange)
	assert.ErrorIs(t, err, ErrParse)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Line)
	assert.Equal(t, "CH9 L:ON", le.Text)
}

func TestFormatLineRoundTrip(t *testing.T) {
	channels := []Channel{
		DefaultChannel(0),
		{Low: -5, High: 3, Calibration: -1.5, Actuators: logic.MaskOf(1, 6), IsLogging: false},
		{Low: 18, High: 18, Calibration: 0.4, IsLogging: true},
	}
	for i, ch := range channels {
		line := FormatLine(i, ch)
		lc, ok, err := ParseLine(line)
		require.NoError(t, err, line)
		require.True(t, ok)

		var got Channel
		lc.Apply(&got)
		assert.Equal(t, i, lc.Channel, line)
		assert.Equal(t, ch.Low, got.Low, line)
		assert.Equal(t, ch.High, got.High, line)
		assert.Equal(t, ch.Calibration, got.Calibration, line)
		assert.Equal(t, ch.Actuators, got.Actuators, line)
		assert.Equal(t, ch.IsLogging, got.IsLogging, line)
	}
}

func TestFormatLine(t *testing.T) {
	ch := Channel{Low: 18, High: 21, Calibration: -0.2, Actuators: logic.MaskOf(2, 3), IsLogging: true}
	assert.Equal(t, "CH4 C-2 L:ON 18 21 A:3 4", FormatLine(3, ch))

	ch = Channel{Low: 20, High: 22}
	assert.Equal(t, "CH1 C+0 L:OFF 20 22", FormatLine(0, ch))
}

func TestDefaultConfigGolden(t *testing.T) {
	s := New(nil, nil, nil)
	channels := s.Channels()

	var buf bytes.Buffer
	require.NoError(t, WriteConfig(&buf, channels[:]))

	g := goldie.New(t)
	g.Assert(t, "default_config", buf.Bytes())
}
