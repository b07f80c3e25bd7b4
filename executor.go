package pio

// nthBit returns bit n (0 = LSB) of from.
func nthBit(n uint8, from uint32) bool {
	return (from>>n)&1 != 0
}

// setNthBit sets or clears bit n of *dest.
func setNthBit(n uint8, dest *uint32, value bool) {
	mask := uint32(1) << n
	if value {
		*dest |= mask
	} else {
		*dest &^= mask
	}
}

// copyNThenShift copies the n bits OUT would output (the low n bits of
// *source when shifting right, the high n bits when shifting left),
// shifts those bits out of *source, and returns the copied bits
// right-justified.
func copyNThenShift(shiftRight bool, source *uint32, n uint8) uint32 {
	var nbits uint32
	if shiftRight {
		if n == 32 {
			nbits = *source
			*source = 0
		} else {
			mask := ^(uint32(0xFFFFFFFF) << n)
			nbits = *source & mask
			*source >>= n
		}
	} else {
		if n == 32 {
			nbits = *source
			*source = 0
		} else {
			nbits = *source >> (32 - n)
			*source <<= n
		}
	}
	return nbits
}

// shiftNThenCopy makes room for n bits in *dest (shifting its existing
// contents out of the way) and then copies in the low n bits of
// source, the way IN always does regardless of shift direction.
func shiftNThenCopy(shiftRight bool, source uint32, dest *uint32, n uint8) {
	var nbits uint32
	if n == 32 {
		nbits = source
	} else {
		mask := ^(uint32(0xFFFFFFFF) << n)
		nbits = source & mask
	}
	if shiftRight {
		*dest >>= n
		nbits <<= (32 - n)
		*dest += nbits
	} else {
		*dest <<= n
		*dest += nbits
	}
}

func bitReverse32(input uint32) uint32 {
	var output uint32
	for i := 0; i < 32; i++ {
		output <<= 1
		output |= input & 1
		input >>= 1
	}
	return output
}

// runJmp evaluates the branch condition and resolves the target PC.
// When the instruction arrived via recursive EXEC decode, JmpPCSet is
// already true and the (already-absolute) JmpPC is used as-is.
func runJmp(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	branch := false
	switch instr.Condition {
	case Always, UnsetCondition:
		branch = true
	case XZero:
		branch = sm.ScratchX == 0
	case YZero:
		branch = sm.ScratchY == 0
	// X--/Y-- branch on the value before the decrement; a register that
	// is already zero does not branch and stays at zero.
	case XDecrement:
		branch = sm.ScratchX != 0
		if branch {
			sm.ScratchX--
		}
	case YDecrement:
		branch = sm.ScratchY != 0
		if branch {
			sm.ScratchY--
		}
	case XNotEqualY:
		branch = sm.ScratchX != sm.ScratchY
	case PinCondition:
		pc := sm.Config.PinCondition
		branch = pc >= 0 && pc <= 31 && hw.GetGPIO(uint8(pc))
	case NotOSRE:
		thresh := sm.Config.PullThreshold
		if thresh <= 0 {
			thresh = 32
		}
		branch = int(sm.ShiftOutCount) < thresh
	}
	if !instr.JmpPCSet {
		if branch {
			loc, ok := hw.Labels[instr.Label]
			if ok {
				instr.JmpPC = int8(loc.Location)
			} else {
				logger.Warn("jmp: unresolved label", "label", instr.Label, "line", instr.Line)
				instr.JmpPC = int8(sm.PC + 1)
			}
		} else {
			instr.JmpPC = int8(sm.PC + 1)
		}
	}
	return true
}

func runWait(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	switch instr.WaitSource {
	case WaitGPIO:
		return hw.GetGPIO(uint8(instr.IndexOrValue)) == instr.Polarity
	case WaitPin:
		idx := (uint8(instr.IndexOrValue) + sm.Config.InPinsBase) % NumGPIOs
		return hw.GetGPIO(idx) == instr.Polarity
	case WaitIRQ:
		idx := uint8(instr.IndexOrValue)
		value := hw.GetIRQFlag(idx)
		completed := (instr.Polarity && value) || (!instr.Polarity && !value)
		if completed && instr.Polarity && ClearIRQOnWaitMatch {
			hw.SetIRQFlag(idx, false)
		}
		return completed
	default:
		logger.Warn("wait: source not set", "line", instr.Line)
		return false
	}
}

func runNop(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	return true
}

func runPush(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if instr.IfFull && !sm.ISRFull {
		return true
	}
	if sm.FIFO.TXState == FifoFull {
		if instr.Block {
			return false
		}
		return true
	}
	sm.FIFO.Push(sm.ISR)
	sm.ISR = 0
	sm.ShiftInCount = 0
	sm.ISRFull = false
	return true
}

func runAutopush(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if sm.FIFO.TXState == FifoFull {
		return false
	}
	sm.FIFO.Push(sm.ISR)
	sm.ISR = 0
	sm.ShiftInCount = 0
	sm.ISRFull = false
	return true
}

// bitCount32 canonicalizes an instruction's 5-bit encoded bit count: 0
// encodes 32, matching the RP2040 datasheet (the source this executor
// is otherwise grounded on takes the raw field literally and treats an
// encoded 0 as zero bits; this corrects that to the documented hardware
// behavior).
func bitCount32(n uint8) uint8 {
	if n == 0 {
		return 32
	}
	return n
}

// runIn shifts bits into the ISR and, once the threshold is reached, hands
// off to autopush. A stalled autopush (RX fifo full) leaves the bits already
// shifted into the ISR in place and only retries the push on the next call —
// the source this is grounded on tracks a resume-bit-count field for exactly
// this case but never actually sets it on a stall, so its retry re-shifts
// the same bits into the ISR a second time; that double-shift is not
// preserved here since it would corrupt ISR contents visible to a host
// reading mid-stall.
func runIn(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if sm.ShiftInResumeCount > 0 {
		if !runAutopush(hw, sm, instr) {
			return false
		}
		sm.ShiftInResumeCount = 0
		return true
	}

	threshold := sm.Config.PushThreshold
	shiftRight := sm.Config.InShiftRight
	bitsTodo := bitCount32(instr.BitCount)

	switch instr.Source {
	case SourcePins:
		var nbits uint32
		for n := uint8(0); n < bitsTodo; n++ {
			gpio := (sm.Config.InPinsBase + n) % NumGPIOs
			setNthBit(n, &nbits, hw.GetGPIO(gpio))
		}
		shiftNThenCopy(shiftRight, nbits, &sm.ISR, bitsTodo)
	case SourceX:
		shiftNThenCopy(shiftRight, sm.ScratchX, &sm.ISR, bitsTodo)
	case SourceY:
		shiftNThenCopy(shiftRight, sm.ScratchY, &sm.ISR, bitsTodo)
	case SourceNull:
		shiftNThenCopy(shiftRight, 0, &sm.ISR, bitsTodo)
	case SourceISR:
		shiftNThenCopy(shiftRight, sm.ISR, &sm.ISR, bitsTodo)
	case SourceOSR:
		shiftNThenCopy(shiftRight, sm.OSR, &sm.ISR, bitsTodo)
	default:
		logger.Warn("in: invalid source", "source", instr.Source, "line", instr.Line)
	}

	sm.ShiftInCount += bitsTodo
	sm.ShiftInResumeCount = 0
	full := (threshold > 0 && int(sm.ShiftInCount) >= threshold) || sm.ShiftInCount >= 32
	if full {
		sm.ISRFull = true
		if sm.Config.AutoPush {
			if !runAutopush(hw, sm, instr) {
				sm.ShiftInResumeCount = bitsTodo
				return false
			}
		}
	}
	return true
}

func runPull(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if instr.IfEmpty && !sm.OSREmpty {
		return true
	}
	if sm.FIFO.RXState == FifoEmpty {
		if instr.Block {
			return false
		}
		sm.OSR = sm.ScratchX
		sm.ShiftOutCount = 0
		sm.ShiftOutResumeCount = 0
		return true
	}
	v, _ := sm.FIFO.Pull()
	sm.OSR = v
	sm.ShiftOutCount = 0
	sm.ShiftOutResumeCount = 0
	sm.OSREmpty = false
	return true
}

func runAutopull(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if sm.FIFO.RXState == FifoEmpty {
		return false
	}
	v, _ := sm.FIFO.Pull()
	sm.OSR = v
	sm.ShiftOutCount = 0
	sm.ShiftOutResumeCount = 0
	sm.OSREmpty = false
	return true
}

// runOut applies the copy-then-shift semantics the RP2040 datasheet
// describes, including the one-level recursive decode-and-run for an
// EXEC destination and the PC update for a PC destination. For a PC
// destination it sets PC to one below the target, so the caller's usual
// increment after a completed instruction lands on the target; for an
// EXEC destination the caller skips that increment, since the executed
// instruction has already advanced PC itself.
func runOut(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	if sm.OSREmpty {
		if sm.Config.AutoPull {
			if !runAutopull(hw, sm, instr) {
				return false
			}
		} else {
			return false
		}
	}

	bitsTodo := bitCount32(instr.BitCount)
	if sm.ShiftOutResumeCount > 0 {
		bitsTodo = sm.ShiftOutResumeCount
	} else if instr.Destination == DestPins && sm.Config.OutPinsNum < bitsTodo {
		bitsTodo = sm.Config.OutPinsNum
	}

	nbits := copyNThenShift(sm.Config.OutShiftRight, &sm.OSR, bitsTodo)

	switch instr.Destination {
	case DestPins:
		for n := uint8(0); n < bitsTodo; n++ {
			gpio := (sm.Config.OutPinsBase + n) % NumGPIOs
			hw.SetGPIO(gpio, nthBit(n, nbits))
		}
	case DestX:
		sm.ScratchX = nbits
	case DestY:
		sm.ScratchY = nbits
	case DestNull:
		// discarded
	case DestPinDirs:
		for n := uint8(0); n < bitsTodo; n++ {
			gpio := (sm.Config.OutPinsBase + n) % NumGPIOs
			hw.SetGPIODir(gpio, nthBit(n, nbits))
		}
	case DestPC:
		sm.PCTemp = nbits
	case DestISR:
		sm.ISR = nbits
	case DestExec:
		sm.ExecMachineInstruction = uint16(nbits)
	default:
		logger.Warn("out: invalid destination", "destination", instr.Destination, "line", instr.Line)
	}

	sm.ShiftOutCount += bitsTodo
	if sm.ShiftOutCount > 32 {
		sm.ShiftOutCount = 32
	}
	sm.ShiftOutResumeCount = 0
	threshold := sm.Config.PullThreshold
	if (threshold > 0 && int(sm.ShiftOutCount) >= threshold) || sm.ShiftOutCount >= 32 {
		sm.OSREmpty = true
	}

	switch instr.Destination {
	case DestPC:
		pio := &hw.PIOs[sm.PIOIndex]
		if int32(sm.PCTemp) >= 0 && int32(sm.PCTemp) < int32(pio.NextLocation) {
			sm.PC = int32(sm.PCTemp) - 1
		} else {
			logger.Warn("out: pc target out of range, pc not modified", "target", sm.PCTemp, "line", instr.Line)
		}
		return true
	case DestExec:
		return runExecFromOut(hw, sm)
	default:
		return true
	}
}

// decodeExec decodes the word an OUT or MOV destined for EXEC placed
// into ExecMachineInstruction, refusing (logging and running as NOP) a
// decoded instruction that itself targets EXEC, since recursion here is
// exactly one level deep.
func decodeExec(hw *Hardware, sm *StateMachine) bool {
	decoded := Decode(sm.ExecMachineInstruction, sm.Config.SideSetCount)
	if (decoded.Kind == KindOut && decoded.Destination == DestExec) ||
		(decoded.Kind == KindMov && decoded.Destination == DestExec) {
		logger.Warn("exec: refusing nested EXEC destination", "sm", sm.Index, "pio", sm.PIOIndex)
		sm.ExecInstruction = Instruction{Kind: KindEmpty}
		return false
	}
	sm.ExecInstruction = decoded
	return true
}

// runExecFromOut runs the just-decoded EXEC instruction to completion,
// matching an OUT-to-EXEC's behavior in the source this is modeled on:
// it loops the full per-tick dispatcher (so the recursed instruction's
// own delay and side-set apply) until that instruction completes.
func runExecFromOut(hw *Hardware, sm *StateMachine) bool {
	if !decodeExec(hw, sm) {
		return true
	}
	completed := false
	for !completed {
		completed = RunInstruction(hw, sm, &sm.ExecInstruction)
	}
	return true
}

// runExecFromMov runs the just-decoded EXEC instruction for a single
// tick only, the way MOV-to-EXEC does in the source this is modeled on
// (it does not loop to completion).
func runExecFromMov(hw *Hardware, sm *StateMachine) {
	if !decodeExec(hw, sm) {
		return
	}
	RunInstruction(hw, sm, &sm.ExecInstruction)
}

func runMov(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	var value uint32
	switch instr.Source {
	case SourcePins:
		pin := sm.Config.InPinsBase
		for i := 0; i < 32; i++ {
			value <<= 1
			if hw.GetGPIO(pin) {
				value |= 1
			}
			if pin == 31 {
				pin = 0
			} else {
				pin++
			}
		}
	case SourceX:
		value = sm.ScratchX
	case SourceY:
		value = sm.ScratchY
	case SourceNull:
		value = 0
	case SourceStatus:
		value = sm.FIFO.Status
	case SourceISR:
		value = sm.ISR
	case SourceOSR:
		value = sm.OSR
	default:
		logger.Warn("mov: invalid source", "source", instr.Source, "line", instr.Line)
	}

	switch instr.Operation {
	case OpInvert:
		value = ^value
	case OpBitReverse:
		value = bitReverse32(value)
	}

	switch instr.Destination {
	case DestPins:
		for n := uint8(0); n < sm.Config.OutPinsNum; n++ {
			gpio := sm.Config.OutPinsBase + n
			hw.SetGPIO(gpio, value%2 != 0)
			value >>= 1
		}
	case DestX:
		sm.ScratchX = value
	case DestY:
		sm.ScratchY = value
	case ReservedDestination:
		logger.Warn("mov: reserved destination", "line", instr.Line)
	case DestExec:
		sm.ExecMachineInstruction = uint16(value)
		runExecFromMov(hw, sm)
	case DestPC:
		sm.PC = int32(value) - 1
	case DestISR:
		sm.ISR = value
	case DestOSR:
		sm.OSR = value
	default:
		logger.Warn("mov: invalid destination", "destination", instr.Destination, "line", instr.Line)
	}
	return true
}

func runSet(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	value := instr.IndexOrValue
	switch instr.Destination {
	case DestPins:
		for n := uint8(0); n < sm.Config.SetPinsNum; n++ {
			gpio := sm.Config.SetPinsBase + n
			hw.SetGPIO(gpio, value%2 != 0)
			value >>= 1
		}
	case DestX:
		sm.ScratchX = value
	case DestY:
		sm.ScratchY = value
	case DestPinDirs:
		for n := uint8(0); n < sm.Config.SetPinsNum; n++ {
			gpio := sm.Config.SetPinsBase + n
			hw.SetGPIODir(gpio, value%2 != 0)
			value >>= 1
		}
	default:
		logger.Warn("set: invalid destination", "destination", instr.Destination, "line", instr.Line)
	}
	return true
}

func runIrq(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	switch {
	case instr.Clear:
		hw.SetIRQFlag(uint8(instr.IndexOrValue), false)
	default:
		// TODO: instr.Wait is not modeled as a stall on the raised flag
		// being serviced; the simulator this is based on never models it
		// either.
		hw.SetIRQFlag(uint8(instr.IndexOrValue), true)
	}
	return true
}

func runSideSet(hw *Hardware, sm *StateMachine, instr *Instruction) {
	value := uint32(instr.SideSetValue)
	base := sm.Config.SideSetPinsBase
	for n := uint8(0); n < sm.Config.SideSetPinsNum; n++ {
		gpio := base + n
		bit := value%2 != 0
		if sm.Config.SideSetPinDirs {
			hw.SetGPIODir(gpio, bit)
		} else {
			hw.SetGPIO(gpio, bit)
		}
		value >>= 1
	}
}

// runInstructionBody dispatches to the per-kind handler; it does not
// apply delay or side-set, which RunInstruction applies around it (an
// instruction run through EXEC goes through RunInstruction as well).
func runInstructionBody(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	switch instr.Kind {
	case KindJmp:
		return runJmp(hw, sm, instr)
	case KindWait:
		return runWait(hw, sm, instr)
	case KindNop:
		return runNop(hw, sm, instr)
	case KindIn:
		return runIn(hw, sm, instr)
	case KindOut:
		return runOut(hw, sm, instr)
	case KindPush:
		return runPush(hw, sm, instr)
	case KindPull:
		return runPull(hw, sm, instr)
	case KindMov:
		return runMov(hw, sm, instr)
	case KindSet:
		return runSet(hw, sm, instr)
	case KindIrq:
		return runIrq(hw, sm, instr)
	default:
		return true
	}
}

// RunInstruction runs one tick of instruction, handling its delay state
// machine and side-set application, and advances the owning state
// machine's PC when the instruction completes this tick. It returns
// whether the instruction completed (false means it stalled and must
// be retried next tick without re-decoding).
func RunInstruction(hw *Hardware, sm *StateMachine, instr *Instruction) bool {
	var completed bool

	if !instr.InDelayState {
		completed = runInstructionBody(hw, sm, instr)

		if !sm.Config.SideSetOptional && instr.SideSetValue < 0 {
			logger.Warn("side set required but not set, assuming zero", "line", instr.Line)
			instr.SideSetValue = 0
		}
		if instr.SideSetValue >= 0 {
			runSideSet(hw, sm, instr)
		}

		if completed && instr.Delay > 0 {
			instr.InDelayState = true
			instr.DelayLeft = instr.Delay - 1
			completed = false
		}
	} else {
		if instr.DelayLeft > 0 {
			instr.DelayLeft--
			completed = false
		} else {
			completed = true
			instr.InDelayState = false
		}
	}

	if completed {
		wasExecOut := instr.Kind == KindOut && instr.Destination == DestExec
		instr.Reset()
		if instr.Kind == KindJmp {
			sm.PC = int32(instr.JmpPC)
		} else if !wasExecOut {
			sm.PC++
		}
	} else {
		instr.NotCompleted = true
	}
	return completed
}
