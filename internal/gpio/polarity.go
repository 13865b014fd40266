package gpio

// activeLevel maps logical on/off to the line level.
type activeLevel struct {
	Output
	activeHigh bool
}

// WithPolarity returns an Output where Set(true) drives the active level.
func WithPolarity(out Output, activeHigh bool) Output {
	if activeHigh {
		return out
	}
	return &activeLevel{Output: out, activeHigh: activeHigh}
}

func (a *activeLevel) Set(on bool) error {
	return a.Output.Set(on == a.activeHigh)
}
