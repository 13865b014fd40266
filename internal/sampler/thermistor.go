package sampler

import "math"

// AbsoluteZero is the offset between kelvin and degrees Celsius.
const AbsoluteZero = 273.15

// Thermistor describes an NTC thermistor in a voltage divider read by an ADC.
//
// The thermistor sits on the low side of the divider, with a fixed
// Reference resistor to the supply: v/FullScale = R/(R+Reference).
type Thermistor struct {
	// FullScale is the ADC count corresponding to the supply voltage.
	FullScale float64
	// Reference is the fixed divider resistor (ohms).
	Reference float64
	// R0 is the thermistor resistance at T0 (ohms).
	R0 float64
	// T0 is the reference temperature (kelvin).
	T0 float64
	// Beta is the thermistor beta coefficient (kelvin).
	Beta float64
}

// DefaultThermistor returns the parameters of the original board: 10-bit ADC,
// 100k NTC (beta 3950) against a 100k reference.
func DefaultThermistor() Thermistor {
	return Thermistor{
		FullScale: 1023,
		Reference: 100000,
		R0:        100000,
		T0:        298.15,
		Beta:      3950,
	}
}

// Resistance converts an averaged raw reading to the thermistor resistance.
// A reading at or above full scale means an open sensor (+Inf).
func (th Thermistor) Resistance(raw float64) float64 {
	if raw >= th.FullScale {
		return math.Inf(1)
	}
	ratio := 1 / (th.FullScale/raw - 1)
	return th.Reference * ratio
}

// Celsius converts a raw reading to degrees Celsius using the beta model
// T = 1/(1/T0 + ln(R/R0)/Beta). An open sensor yields absolute zero.
func (th Thermistor) Celsius(raw float64) float64 {
	r := th.Resistance(raw)
	if math.IsInf(r, 1) {
		return -AbsoluteZero
	}
	return 1/(1/th.T0+math.Log(r/th.R0)/th.Beta) - AbsoluteZero
}
