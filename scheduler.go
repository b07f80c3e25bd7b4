package pio

// Scheduler round-robins execution across every state machine and user
// processor, one instruction tick per Step call, alternating which side
// goes first the way the source this is grounded on does: after a state
// machine tick the user processors get priority, and after a user
// processor tick the state machines do, unless that user instruction
// has ContinueUser set and has no delay or is on the last tick of its
// delay, in which case the same user processor keeps priority. Either
// side runs when the preferred one has nothing ready.
type Scheduler struct {
	hw      *Hardware
	history *GPIOHistory

	smCursor int
	upCursor int

	pendingSM int // flat SM index with an instruction ready to run, or -1
	pendingUP int // user processor index with an instruction ready to run, or -1

	tryUserFirst bool
	lastLine     int
}

// NewScheduler builds a scheduler over hw, starting in user-first mode
// and with no instruction yet found on either side. It records a GPIO
// history entry after every state machine tick.
func NewScheduler(hw *Hardware) *Scheduler {
	return &Scheduler{
		hw:           hw,
		history:      NewGPIOHistory(),
		smCursor:     -1,
		upCursor:     -1,
		pendingSM:    -1,
		pendingUP:    -1,
		tryUserFirst: true,
	}
}

// nextSMIndex scans forward from the cursor, round robin, for the next
// state machine with a non-empty instruction at its PC, skipping any
// SM whose PC is negative (nothing loaded) or empty.
func (s *Scheduler) nextSMIndex() int {
	for i := 0; i < NumSMs; i++ {
		s.smCursor = (s.smCursor + 1) % NumSMs
		sm := &s.hw.SMs[s.smCursor]
		if sm.PC < 0 || int(sm.PC) >= NumInstructions {
			continue
		}
		if s.hw.PIOs[sm.PIOIndex].Instructions[sm.PC].Kind != KindEmpty {
			return s.smCursor
		}
	}
	return -1
}

// nextUPIndex scans forward for the next user processor with a
// non-empty instruction at its PC. When dontSwitch is true the cursor
// does not advance (the current user processor keeps the floor, as
// happens while it is mid-delay and asked to continue).
func (s *Scheduler) nextUPIndex(dontSwitch bool) int {
	if dontSwitch {
		if s.upCursor < 0 {
			return -1
		}
		up := &s.hw.UserProcessors[s.upCursor]
		if up.PC >= 0 && int(up.PC) < NumUserInstrs && up.Instructions[up.PC].Kind != UserEmpty {
			return s.upCursor
		}
		return -1
	}
	for i := 0; i < NumUserProcessors; i++ {
		s.upCursor = (s.upCursor + 1) % NumUserProcessors
		up := &s.hw.UserProcessors[s.upCursor]
		if up.PC < 0 || int(up.PC) >= NumUserInstrs {
			continue
		}
		if up.Instructions[up.PC].Kind != UserEmpty {
			return s.upCursor
		}
	}
	return -1
}

// trySM returns whether a pending SM instruction is available, finding
// the next one if none is already staged.
func (s *Scheduler) trySM() bool {
	if s.pendingSM < 0 {
		s.pendingSM = s.nextSMIndex()
	}
	return s.pendingSM >= 0
}

// tryUser is the same memoized lookup for the user-processor side.
func (s *Scheduler) tryUser() bool {
	if s.pendingUP < 0 {
		s.pendingUP = s.nextUPIndex(false)
	}
	return s.pendingUP >= 0
}

// Step runs exactly one instruction tick — either the staged user
// processor instruction or the staged state machine instruction,
// whichever side currently has priority — and returns the source line
// of whichever instruction will run on the next Step call (for a host
// UI to highlight), or the last known line if nothing is runnable.
func (s *Scheduler) Step() int {
	if s.hw.Exited() {
		return s.lastLine
	}

	foundUser := s.tryUser()
	foundSM := s.trySM()
	if !foundUser && !foundSM {
		return s.lastLine
	}

	if (s.tryUserFirst && foundUser) || (!s.tryUserFirst && !foundSM) {
		up := &s.hw.UserProcessors[s.pendingUP]
		instr := &up.Instructions[up.PC]

		if instr.ContinueUser && (instr.Delay == 0 || instr.DelayLeft == 1) {
			s.tryUserFirst = true
		} else {
			s.tryUserFirst = false
		}

		RunUserInstruction(s.hw, &s.hw.SMs[instr.SM], up, instr)
		if s.hw.Exited() {
			return s.lastLine
		}

		s.pendingUP = s.nextUPIndex(s.tryUserFirst)
		foundUser = s.tryUser()

		if !s.tryUserFirst {
			if foundSM {
				s.lastLine = s.hw.PIOs[s.hw.SMs[s.pendingSM].PIOIndex].Instructions[s.hw.SMs[s.pendingSM].PC].Line
			} else if foundUser {
				s.lastLine = s.hw.UserProcessors[s.pendingUP].Instructions[s.hw.UserProcessors[s.pendingUP].PC].Line
			}
		} else {
			if foundUser {
				s.lastLine = s.hw.UserProcessors[s.pendingUP].Instructions[s.hw.UserProcessors[s.pendingUP].PC].Line
			} else if foundSM {
				s.lastLine = s.hw.PIOs[s.hw.SMs[s.pendingSM].PIOIndex].Instructions[s.hw.SMs[s.pendingSM].PC].Line
			}
		}
		return s.lastLine
	}

	if (!s.tryUserFirst && foundSM) || (s.tryUserFirst && !foundUser) {
		sm := &s.hw.SMs[s.pendingSM]
		instr := &s.hw.PIOs[sm.PIOIndex].Instructions[sm.PC]

		s.tryUserFirst = true
		RunInstruction(s.hw, sm, instr)
		s.history.Update(s.hw, sm.ClockTick)
		for _, p := range s.hw.Peripherals() {
			p.Run(s.hw)
		}
		if s.hw.Exited() {
			return s.lastLine
		}
		sm.ClockTick++

		s.pendingSM = s.nextSMIndex()
		foundSM = s.trySM()

		if foundUser {
			s.lastLine = s.hw.UserProcessors[s.pendingUP].Instructions[s.hw.UserProcessors[s.pendingUP].PC].Line
		} else if foundSM {
			s.lastLine = s.hw.PIOs[s.hw.SMs[s.pendingSM].PIOIndex].Instructions[s.hw.SMs[s.pendingSM].PC].Line
		}
		return s.lastLine
	}

	return s.lastLine
}

// GPIOHistory returns the scheduler's pin-timeline recorder.
func (s *Scheduler) GPIOHistory() *GPIOHistory { return s.history }

// RunUntilBreakpoint steps the scheduler until isBreakpoint reports true
// for the upcoming line, the simulation exits, or stop reports true
// (a host UI's own interrupt key, checked once per two ticks). It
// always executes at least one tick, and — matching the source this is
// grounded on — checks for a breakpoint after every tick but only polls
// stop after a pair of ticks.
func (s *Scheduler) RunUntilBreakpoint(isBreakpoint func(line int) bool, stop func() bool) int {
	line := s.lastLine
	for {
		line = s.Step()
		if s.hw.Exited() || isBreakpoint(line) {
			break
		}
		line = s.Step()
		if s.hw.Exited() || isBreakpoint(line) {
			break
		}
		if stop != nil && stop() {
			break
		}
	}
	return line
}
