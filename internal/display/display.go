// Package display renders the focused channel on a 16x2 character display.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sweeney/thermoshield/internal/store"
)

// Width is the number of characters per line.
const Width = 16

// Screen is a two-line character display.
type Screen interface {
	Show(line1, line2 string) error
}

// Channels is the part of the store the renderer reads.
type Channels interface {
	IsAnyActiveChannel() bool
	Index() int
	Channel(i int) store.Channel
	ClearDirty(i int)
}

// Lines formats channel i for the display.
func Lines(i int, ch store.Channel) (string, string) {
	temp := "--.-"
	if !ch.Disconnected() {
		temp = strconv.FormatFloat(ch.Temperature, 'f', 1, 64)
	}
	state := "OFF"
	if ch.IsOn {
		state = "ON"
	}
	line1 := fmt.Sprintf("CH%d %sC %s", i+1, temp, state)

	var b strings.Builder
	switch ch.Override {
	case store.ForcedOff:
		b.WriteString("FORCE OFF ")
	case store.ForcedOn:
		b.WriteString("FORCE ON  ")
	default:
		fmt.Fprintf(&b, "%d..%dC ", ch.Low, ch.High)
	}
	b.WriteString("A:")
	for _, id := range ch.Actuators.IDs() {
		b.WriteString(strconv.Itoa(id + 1))
	}
	return fit(line1), fit(b.String())
}

// InactiveLines is shown when no channel is active.
func InactiveLines() (string, string) {
	return fit("ALL CHANNELS"), fit("INACTIVE")
}

// fit pads or truncates s to the display width.
func fit(s string) string {
	if len(s) > Width {
		return s[:Width]
	}
	return s + strings.Repeat(" ", Width-len(s))
}

// Renderer redraws the screen when the focus moves or the focused channel
// changes.
type Renderer struct {
	screen   Screen
	current  int
	inactive bool
}

func NewRenderer(s Screen) *Renderer {
	return &Renderer{screen: s, current: -1}
}

// Render updates the screen from the store and clears the dirty flag of the
// channel it drew.
func (r *Renderer) Render(c Channels) error {
	if !c.IsAnyActiveChannel() {
		if r.inactive {
			return nil
		}
		r.current = -1
		if err := r.screen.Show(InactiveLines()); err != nil {
			return err
		}
		r.inactive = true
		return nil
	}
	r.inactive = false

	i := c.Index()
	ch := c.Channel(i)
	if i == r.current && !ch.IsDirty {
		return nil
	}
	if err := r.screen.Show(Lines(i, ch)); err != nil {
		r.current = -1
		return err
	}
	r.current = i
	c.ClearDirty(i)
	return nil
}

// Console draws the display as a framed box on a writer.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Show(line1, line2 string) error {
	border := "+" + strings.Repeat("-", Width) + "+"
	_, err := fmt.Fprintf(c.w, "%s\n|%s|\n|%s|\n%s\n", border, line1, line2, border)
	return err
}
