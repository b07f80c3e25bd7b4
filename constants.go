package pio

// Fixed sizes of the hardware this package models.
const (
	NumPIOs            = 2
	NumSMsPerPIO       = 4
	NumSMs             = NumPIOs * NumSMsPerPIO
	NumUserProcessors  = 2
	NumGPIOs           = 32
	NumIRQs            = 2 // irq output lines per PIO
	NumIRQFlags        = 8 // globally addressable flags set/cleared by IRQ and WAIT
	NumInstructions    = 132
	NumUserInstrs      = 32
	NumDefines         = 32
	NumVars            = 10
	SymbolMax          = 32
	StringMax          = 256
	MaxGPIOHistory     = 50
	NoLocation         = 255
	StatusAllOnes      = 0xFFFFFFFF
	StatusAllZeros     = 0
)

// ClearIRQOnWaitMatch resolves an inconsistency in the source this
// simulator is modeled on: a WAIT IRQ with polarity 1 sometimes clears
// the flag it matched on and sometimes doesn't, depending on code path.
// The RP2040 datasheet says it should clear on match; that is the
// default here. Flip this to restore the non-clearing behavior.
const ClearIRQOnWaitMatch = true
