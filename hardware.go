package pio

// PIO is one of the two PIO blocks: four state machines sharing a pair
// of IRQ output lines. Instruction memory itself is not modeled as raw
// words (programs are supplied already decoded into the PIO's
// Instructions array), matching this simulator's stated scope.
type PIO struct {
	IRQs         [NumIRQs]IRQ
	Instructions [NumInstructions]Instruction
	NextLocation int8
	Num          uint8
}

// UserProcessor scripts host-side interaction with state machine FIFOs:
// it runs its own small program of meta-instructions (WRITE, READ, PIN,
// DATA, PRINT, REPEAT, EXIT), each bound to the state machine named by
// its UserInstruction.SM.
type UserProcessor struct {
	Instructions [NumUserInstrs]UserInstruction
	NextLocation int8
	PC           int32
	Num          uint8
	Data         string
}

// Peripheral is a simulated device attached to GPIO pins (an SPI flash
// model, a keypad, ...). Run is invoked once per completed tick to let
// the peripheral react to GPIO/FIFO state; Display renders its current
// state for a host UI. Both replace the original's raw C function
// pointers with a Go interface.
type Peripheral interface {
	Run(hw *Hardware)
	Display(hw *Hardware) string
}

type peripheralEntry struct {
	Name    string
	Enabled bool
	P       Peripheral
}

// Hardware is the full simulated system: two PIOs of four state
// machines each, the shared GPIO bank, two user processors, globally
// addressable IRQ flags, user variables, and the set of registered
// peripherals.
type Hardware struct {
	PIOs           [NumPIOs]PIO
	SMs            [NumSMs]StateMachine
	GPIOs          [NumGPIOs]GPIO
	UserProcessors [NumUserProcessors]UserProcessor
	IRQFlags       [NumIRQFlags]IRQFlag
	Vars           [NumVars]UserVariable
	Defines        map[string]Define
	Labels         map[string]LabelLocation

	peripherals []peripheralEntry

	exited bool
}

// SM returns the state machine for the given (pio, sm) pair, pio in
// 0..1 and sm in 0..3, matching the original's flat p*NumSMsPerPIO+s
// indexing.
func (h *Hardware) SM(pioIndex, smIndex int) *StateMachine {
	return &h.SMs[pioIndex*NumSMsPerPIO+smIndex]
}

// NewHardware builds a Hardware with every SM, PIO, GPIO, and user
// processor at its reset defaults.
func NewHardware() *Hardware {
	h := &Hardware{
		Defines: make(map[string]Define),
		Labels:  make(map[string]LabelLocation),
	}
	h.SetSystemDefaults()
	return h
}

// SetSystemDefaults resets every SM's static configuration (pin
// mappings, shift config) to hardware defaults and then performs a full
// Reset. Mirrors hardware_set_system_defaults.
func (h *Hardware) SetSystemDefaults() {
	for p := range h.PIOs {
		h.PIOs[p].Num = uint8(p)
		h.PIOs[p].IRQs = [NumIRQs]IRQ{}
	}
	for i := range h.SMs {
		sm := &h.SMs[i]
		sm.PIOIndex = i / NumSMsPerPIO
		sm.Index = i % NumSMsPerPIO
		sm.Config = DefaultStateMachineConfig()
		sm.ProgramName = ""
	}
	for i := range h.UserProcessors {
		up := &h.UserProcessors[i]
		for j := range up.Instructions {
			up.Instructions[j] = UserInstruction{Kind: UserEmpty}
		}
	}
	h.Reset()
}

// Reset clears every SM's and user processor's dynamic state (PC,
// registers, FIFO, shift counts) without touching static configuration
// or loaded programs. Mirrors hardware_reset.
func (h *Hardware) Reset() {
	for i := range h.SMs {
		sm := &h.SMs[i]
		sm.PC = -1
		sm.PCTemp = 0
		sm.ClockTick = 0
		sm.FIFO.Init(FifoBidi)
		sm.FIFO.StatusSelTX = sm.Config.StatusSelTX
		sm.FIFO.StatusN = sm.Config.StatusN
		sm.FIFO.setStatus()
		sm.ScratchX = 0
		sm.ScratchY = 0
		sm.OSR = 0
		sm.ISR = 0
		sm.ShiftInCount = 0
		sm.ShiftOutCount = 0
		sm.ShiftInResumeCount = 0
		sm.ShiftOutResumeCount = 0
		sm.OSREmpty = true
		sm.ISRFull = false
	}
	for i := range h.UserProcessors {
		up := &h.UserProcessors[i]
		up.PC = -1
		up.Num = uint8(i)
		up.Data = ""
	}
	h.exited = false
}

// GetGPIO and GetGPIODir read a pin's driven value/direction; invalid
// indices are a caller bug in this package's internal use (SM index
// arithmetic is always in range), so only the exported setters guard
// bounds for external callers.
func (h *Hardware) GetGPIO(n uint8) bool    { return h.GPIOs[n].Value }
func (h *Hardware) GetGPIODir(n uint8) bool { return h.GPIOs[n].Dir }

// SetGPIO and SetGPIODir drive a pin's value/direction. Out-of-range
// indices are logged and ignored rather than panicking.
func (h *Hardware) SetGPIO(n uint8, v bool) {
	if int(n) >= NumGPIOs {
		logger.Warn("gpio index out of range", "gpio", n)
		return
	}
	h.GPIOs[n].Value = v
}

func (h *Hardware) SetGPIODir(n uint8, dir bool) {
	if int(n) >= NumGPIOs {
		logger.Warn("gpio index out of range", "gpio", n)
		return
	}
	h.GPIOs[n].Dir = dir
}

// GetIRQFlag and SetIRQFlag read/set one of the eight globally
// addressable IRQ flags that IRQ and WAIT instructions operate on.
func (h *Hardware) GetIRQFlag(n uint8) bool {
	if int(n) >= NumIRQFlags {
		return false
	}
	return h.IRQFlags[n].Set
}

func (h *Hardware) SetIRQFlag(n uint8, set bool) bool {
	if int(n) >= NumIRQFlags {
		return false
	}
	h.IRQFlags[n].Set = set
	return true
}

// Exited reports whether an EXIT user meta-instruction has stopped the
// simulation; once true the scheduler stops advancing.
func (h *Hardware) Exited() bool { return h.exited }

// RegisterPeripheral adds a simulated device to the set the scheduler
// runs after each state machine tick and a host UI can enumerate for
// display. Only peripherals registered as enabled are run or listed.
func (h *Hardware) RegisterPeripheral(name string, enabled bool, p Peripheral) {
	h.peripherals = append(h.peripherals, peripheralEntry{Name: name, Enabled: enabled, P: p})
}

// Peripherals returns the enabled registered peripherals in
// registration order; disabled ones are left out.
func (h *Hardware) Peripherals() []Peripheral {
	out := make([]Peripheral, 0, len(h.peripherals))
	for _, e := range h.peripherals {
		if e.Enabled {
			out = append(out, e.P)
		}
	}
	return out
}

// DefineVar establishes a user variable slot by name (READ's VarName
// target must be defined before first use), bounded to NumVars slots.
func (h *Hardware) DefineVar(name string) bool {
	for i := range h.Vars {
		if h.Vars[i].Name == name {
			return true
		}
	}
	for i := range h.Vars {
		if h.Vars[i].Name == "" {
			h.Vars[i] = UserVariable{Name: name}
			return true
		}
	}
	return false
}

// SetVar stores a value into a previously defined user variable.
func (h *Hardware) SetVar(name string, value uint32) bool {
	for i := range h.Vars {
		if h.Vars[i].Name == name {
			h.Vars[i].Value = value
			h.Vars[i].HasValue = true
			return true
		}
	}
	return false
}

// GetVar retrieves a defined user variable's value.
func (h *Hardware) GetVar(name string) (uint32, bool) {
	for i := range h.Vars {
		if h.Vars[i].Name == name && h.Vars[i].HasValue {
			return h.Vars[i].Value, true
		}
	}
	return 0, false
}

// UndefineVar frees a variable slot for reuse.
func (h *Hardware) UndefineVar(name string) bool {
	for i := range h.Vars {
		if h.Vars[i].Name == name {
			h.Vars[i] = UserVariable{}
			return true
		}
	}
	return false
}
