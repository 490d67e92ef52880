package wt61p803

// MilliCelsius converts a raw NTC byte, centered at 0x80, to milli-degrees
// Celsius. Total over the byte range: [-128000, +127000].
func MilliCelsius(raw byte) int32 {
	return (int32(raw) - 0x80) * 1000
}

// RPM converts a raw 16-bit tachometer reading to rotations per minute.
// The MCU counts two pulses per rotation over a one second window.
func RPM(hi, lo byte) int32 {
	return (int32(hi)<<8 | int32(lo)) / 2 * 60
}
