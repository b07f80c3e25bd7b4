package pio

// StateMachine is one of a PIO's four independent program counters and
// register sets, sharing the PIO's instruction memory and IRQ lines but
// owning its own FIFO, scratch registers, and shift state.
type StateMachine struct {
	PIOIndex int
	Index    int // 0..3 within its PIO

	PC       int32
	FirstPC  int32
	ScratchX uint32
	ScratchY uint32
	OSR      uint32
	ISR      uint32

	FIFO FIFO

	Config StateMachineConfig

	ShiftInCount  uint8
	ShiftOutCount uint8
	OSREmpty      bool
	ISRFull       bool

	ShiftOutResumeCount uint8
	ShiftInResumeCount  uint8

	ClockTick uint32

	PCTemp                 uint32
	ExecMachineInstruction uint16
	ExecInstruction        Instruction

	ProgramName string
}

// StateMachineConfig holds a state machine's pin mapping and shift
// behavior, set once before a program is loaded and run. Shaped after
// a hardware PIO's config struct (SetOutShift/SetInShift/SetSideset...)
// but holding plain typed fields since there is no register file here.
type StateMachineConfig struct {
	SetPinsBase, SetPinsNum   uint8
	OutPinsBase, OutPinsNum   uint8
	InPinsBase                uint8
	SideSetPinsBase           uint8
	SideSetPinsNum            uint8
	SideSetOptional           bool
	SideSetPinDirs            bool
	SideSetCount              uint8
	PinCondition              int8 // -1 means unset

	AutoPush, AutoPull bool
	PullThreshold      int // -1 means "no threshold" (treated as 32)
	PushThreshold      int
	OutShiftRight      bool
	InShiftRight       bool

	StatusSelTX bool
	StatusN     uint8
}

// DefaultStateMachineConfig returns a configuration matching the
// hardware reset defaults: no pins assigned, side-set optional with no
// pindirs, autopush/autopull disabled, no shift threshold set.
func DefaultStateMachineConfig() StateMachineConfig {
	return StateMachineConfig{
		PinCondition:    -1,
		SideSetOptional: true,
		PullThreshold:   -1,
		PushThreshold:   -1,
		StatusN:         4,
	}
}

func (c *StateMachineConfig) SetSetPins(base, count uint8) { c.SetPinsBase, c.SetPinsNum = base, count }
func (c *StateMachineConfig) SetOutPins(base, count uint8) { c.OutPinsBase, c.OutPinsNum = base, count }
func (c *StateMachineConfig) SetInPins(base uint8)         { c.InPinsBase = base }

func (c *StateMachineConfig) SetSidesetPins(base uint8) { c.SideSetPinsBase = base }

// SetSidesetParams mirrors the hardware's side-set count/optional/
// pindirs tuple. count sets both the number of side-set pins driven and
// the side-set field width the decoder uses; the values are stored as
// given, without range checks or logging.
func (c *StateMachineConfig) SetSidesetParams(count uint8, optional, pindirs bool) {
	c.SideSetPinsNum = count
	c.SideSetCount = count
	c.SideSetOptional = optional
	c.SideSetPinDirs = pindirs
}

// SetOutShift configures OUT/autopull behavior. threshold follows the
// RP2040 convention where 0 means 32; it is canonicalized to -1
// ("no threshold", compared as 32) so core code never special-cases 0.
func (c *StateMachineConfig) SetOutShift(shiftRight, autoPull bool, threshold uint8) {
	c.OutShiftRight = shiftRight
	c.AutoPull = autoPull
	c.PullThreshold = canonicalThreshold(threshold)
}

// SetInShift configures IN/autopush behavior, symmetric to SetOutShift.
func (c *StateMachineConfig) SetInShift(shiftRight, autoPush bool, threshold uint8) {
	c.InShiftRight = shiftRight
	c.AutoPush = autoPush
	c.PushThreshold = canonicalThreshold(threshold)
}

func canonicalThreshold(threshold uint8) int {
	if threshold == 0 || threshold == 32 {
		return -1
	}
	return int(threshold)
}

func (c *StateMachineConfig) SetMovStatus(selTX bool, n uint8) {
	c.StatusSelTX = selTX
	c.StatusN = n
}

// SetMovStatus configures MOV STATUS source selection and threshold,
// taking effect immediately: unlike the other config setters (read
// from sm.Config directly at use time by the executor), the FIFO
// reads its own copy of these two fields, so this also writes through
// to the live FIFO rather than leaving it stale until the next reset.
func (sm *StateMachine) SetMovStatus(selTX bool, n uint8) {
	sm.Config.SetMovStatus(selTX, n)
	sm.FIFO.StatusSelTX = selTX
	sm.FIFO.StatusN = n
	sm.FIFO.setStatus()
}

func (c *StateMachineConfig) SetPinCondition(pin int8) {
	if pin >= 0 && pin <= 31 {
		c.PinCondition = pin
	}
}
