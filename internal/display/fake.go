package display

// FakeScreen records what was shown for test assertions.
type FakeScreen struct {
	Frames [][2]string
	Err    error
}

func (f *FakeScreen) Show(line1, line2 string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Frames = append(f.Frames, [2]string{line1, line2})
	return nil
}

// Last returns the most recent frame.
func (f *FakeScreen) Last() [2]string {
	if len(f.Frames) == 0 {
		return [2]string{}
	}
	return f.Frames[len(f.Frames)-1]
}
