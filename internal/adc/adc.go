// Package adc reads raw analog samples.
// The real implementation uses the Linux industrial I/O (IIO) sysfs interface.
package adc

// Reader returns one raw conversion for a channel.
type Reader interface {
	ReadRaw(channel int) (int, error)
}

// DefaultIIODevice is the sysfs directory of the first IIO device.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"
