package pio

// GPIO models one physical pin: its driven value and its direction
// (true means the pin is configured as an output).
type GPIO struct {
	Value bool
	Dir   bool
}

// IRQ is one of a PIO's two interrupt output lines.
type IRQ struct {
	Value bool
}

// IRQFlag is one of the globally addressable interrupt-request flags
// that IRQ and WAIT instructions set, clear, and wait on. Unlike the
// per-PIO IRQ output lines, flags are addressed 0..7 independent of
// which PIO raised them; a flag may additionally be mapped onto one of
// the owning PIO's two physical IRQ lines.
type IRQFlag struct {
	Set         bool
	MappedToIRQ bool
	PIO         uint8
	PIONum      uint8
}
