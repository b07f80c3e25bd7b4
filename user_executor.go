package pio

// user-processor meta-instructions script host-side interaction with
// state machine FIFOs; each instruction targets the FIFO of the state
// machine named by its own SM field (UserInstruction.SM).

func runWrite(hw *Hardware, sm *StateMachine, instr *UserInstruction) bool {
	if !sm.FIFO.Write(instr.Value) {
		logger.Debug("write: fifo full, blocked")
		return false
	}
	return true
}

func runRead(hw *Hardware, sm *StateMachine, instr *UserInstruction) bool {
	v, ok := sm.FIFO.Read()
	if !ok {
		return false
	}
	if !hw.SetVar(instr.VarName, v) {
		logger.Warn("read: unable to set variable", "var", instr.VarName)
	}
	return true
}

func runUserPrint(hw *Hardware, sm *StateMachine, instr *UserInstruction) bool {
	v, ok := hw.GetVar(instr.VarName)
	if !ok {
		logger.Warn("print: variable not defined", "var", instr.VarName)
	} else {
		logger.Info("variable", "name", instr.VarName, "value", v)
	}
	return true
}

func runUserPin(hw *Hardware, sm *StateMachine, instr *UserInstruction) bool {
	if instr.Pin < 0 {
		logger.Warn("pin: invalid pin", "pin", instr.Pin)
		return true
	}
	hw.SetGPIO(uint8(instr.Pin), instr.SetHigh)
	return true
}

func runData(hw *Hardware, sm *StateMachine, up *UserProcessor, instr *UserInstruction) bool {
	switch instr.DataOp {
	case DataWrite:
		if instr.DataIndex >= len(up.Data) {
			return true
		}
		value := uint32(up.Data[instr.DataIndex])
		if !sm.FIFO.Write(value) {
			return false
		}
		instr.DataIndex++
		return instr.DataIndex == len(up.Data)

	case DataRead:
		v, ok := sm.FIFO.Read()
		if !ok {
			return false
		}
		up.Data += string(rune(v))
		instr.DataIndex++
		return instr.DataIndex == instr.MaxReadIndex || instr.DataIndex == StringMax

	case DataReadLn:
		v, ok := sm.FIFO.Read()
		if !ok {
			return false
		}
		up.Data += string(rune(v))
		instr.DataIndex++
		return v == '.' || instr.DataIndex == StringMax

	case DataPrint:
		logger.Info("data", "value", up.Data)
		return true

	case DataSet:
		up.Data = instr.DataLiteral
		return true

	case DataClear:
		up.Data = ""
		instr.DataIndex = 0
		return true

	default:
		logger.Warn("data: unexpected operation", "op", instr.DataOp)
		return true
	}
}

func runRepeat(hw *Hardware, up *UserProcessor, instr *UserInstruction) bool {
	up.PC = -1
	return true
}

func runExit(hw *Hardware, instr *UserInstruction) bool {
	logger.Info("program exited, simulation stopped")
	hw.exited = true
	return true
}

func runEmptyUser(hw *Hardware, instr *UserInstruction) bool {
	return true
}

// RunUserInstruction runs one tick of a user-processor instruction
// against the FIFO of sm, handling its pre-delay the way the original
// does (a delay that must elapse before the instruction's effect runs
// at all, rather than a post-completion delay as Instruction has).
func RunUserInstruction(hw *Hardware, sm *StateMachine, up *UserProcessor, instr *UserInstruction) bool {
	if instr.Delay > 0 && !instr.DelayCompleted {
		if !instr.InDelayState {
			instr.InDelayState = true
			instr.DelayLeft = int(instr.Delay)
		} else {
			instr.DelayLeft--
			if instr.InDelayState && instr.DelayLeft == 0 {
				instr.InDelayState = false
				instr.DelayCompleted = true
			}
		}
	}

	var completed bool
	if !instr.InDelayState {
		switch instr.Kind {
		case UserWrite:
			completed = runWrite(hw, sm, instr)
		case UserRead:
			completed = runRead(hw, sm, instr)
		case UserPrint:
			completed = runUserPrint(hw, sm, instr)
		case UserData:
			completed = runData(hw, sm, up, instr)
		case UserPin:
			completed = runUserPin(hw, sm, instr)
		case UserRepeat:
			completed = runRepeat(hw, up, instr)
		case UserExit:
			completed = runExit(hw, instr)
		default:
			completed = runEmptyUser(hw, instr)
		}
	}

	if completed {
		instr.Reset()
		up.PC++
	} else {
		instr.NotCompleted = true
	}
	return completed
}
