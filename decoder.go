package pio

// instructionField extracts bits [from, to] (inclusive, LSB-numbered)
// of a 16-bit machine word and returns them right-justified.
func instructionField(word uint16, from, to uint) uint16 {
	var field uint16
	for n := from; n <= to; n++ {
		bit := (word >> n) & 1
		field |= bit << (n - from)
	}
	return field
}

// Decode turns a raw 16-bit instruction word into a decoded
// Instruction. sideSetCount is the owning state machine's configured
// side-set bit width, needed to locate the delay/side-set field
// boundary the same way the rest of the instruction is located.
//
// This is used only for the one level of recursive decode that an OUT
// or MOV with an EXEC destination performs (the word built up in
// exec_machine_instruction is decoded and immediately run); ordinary
// program instructions are supplied already decoded.
func Decode(word uint16, sideSetCount uint8) Instruction {
	var instr Instruction

	delayTop := 12 - uint(sideSetCount)
	instr.Delay = uint8(instructionField(word, 8, delayTop))
	sideSetValue := instructionField(word, delayTop+1, 12)
	instr.SideSetValue = int8(sideSetValue)

	kind := instructionField(word, 13, 15)

	switch kind {
	case 0: // JMP
		instr.Kind = KindJmp
		instr.SideSetValue = -1
		instr.JmpPCSet = true
		switch instructionField(word, 5, 7) {
		case 0:
			instr.Condition = Always
		case 1:
			instr.Condition = XZero
		case 2:
			instr.Condition = XDecrement
		case 3:
			instr.Condition = YZero
		case 4:
			instr.Condition = YDecrement
		case 5:
			instr.Condition = XNotEqualY
		case 6:
			instr.Condition = PinCondition
		case 7:
			instr.Condition = NotOSRE
		default:
			instr.Condition = UnsetCondition
		}
		instr.JmpPC = int8(instructionField(word, 0, 4)) - 1

	case 1: // WAIT
		instr.Kind = KindWait
		instr.Polarity = instructionField(word, 7, 7) != 0
		instr.IndexOrValue = uint32(instructionField(word, 0, 4))
		switch instructionField(word, 5, 6) {
		case 0:
			instr.WaitSource = WaitGPIO
		case 1:
			instr.WaitSource = WaitPin
		case 2:
			instr.WaitSource = WaitIRQ
		case 3:
			instr.WaitSource = ReservedWaitSource
		default:
			instr.WaitSource = UnsetWaitSource
		}

	case 2: // IN
		instr.Kind = KindIn
		instr.BitCount = uint8(instructionField(word, 0, 4))
		instr.Source = decodeInSource(instructionField(word, 5, 7))

	case 3: // OUT
		instr.Kind = KindOut
		instr.BitCount = uint8(instructionField(word, 0, 4))
		instr.Destination = decodeOutDestination(instructionField(word, 5, 7))

	case 4: // PUSH & PULL
		instr.Block = instructionField(word, 5, 5) != 0
		if instructionField(word, 7, 7) != 0 {
			instr.Kind = KindPull
			instr.IfEmpty = instructionField(word, 6, 6) != 0
		} else {
			instr.Kind = KindPush
			instr.IfFull = instructionField(word, 6, 6) != 0
		}

	case 5: // MOV
		instr.Kind = KindMov
		instr.Destination = decodeMovDestination(instructionField(word, 5, 7))
		instr.Source = decodeMovSource(instructionField(word, 0, 2))
		switch instructionField(word, 3, 4) {
		case 0:
			instr.Operation = NoOperation
		case 1:
			instr.Operation = OpInvert
		case 2:
			instr.Operation = OpBitReverse
		case 3:
			instr.Operation = ReservedOperation
		default:
			instr.Operation = UnsetOperation
		}

	case 6: // IRQ
		instr.Kind = KindIrq
		instr.IndexOrValue = uint32(instructionField(word, 0, 4))
		instr.Wait = instructionField(word, 5, 5) != 0
		instr.Clear = instructionField(word, 6, 6) != 0

	case 7: // SET
		instr.Kind = KindSet
		instr.IndexOrValue = uint32(instructionField(word, 0, 4))
		switch instructionField(word, 5, 7) {
		case 0:
			instr.Destination = DestPins
		case 1:
			instr.Destination = DestX
		case 2:
			instr.Destination = DestY
		case 4:
			instr.Destination = DestPinDirs
		case 3, 5, 6, 7:
			instr.Destination = ReservedDestination
		default:
			instr.Destination = UnsetDestination
		}

	default:
		logger.Warn("decode: unreachable instruction class", "kind", kind, "word", word)
		instr.Kind = KindEmpty
	}

	return instr
}

func decodeInSource(field uint16) Source {
	switch field {
	case 0:
		return SourcePins
	case 1:
		return SourceX
	case 2:
		return SourceY
	case 3:
		return SourceNull
	case 6:
		return SourceISR
	case 7:
		return SourceOSR
	case 4, 5:
		return ReservedSource
	default:
		return UnsetSource
	}
}

func decodeOutDestination(field uint16) Destination {
	switch field {
	case 0:
		return DestPins
	case 1:
		return DestX
	case 2:
		return DestY
	case 3:
		return DestNull
	case 4:
		return DestPinDirs
	case 5:
		return DestPC
	case 6:
		return DestISR
	case 7:
		return DestExec
	default:
		return UnsetDestination
	}
}

func decodeMovDestination(field uint16) Destination {
	switch field {
	case 0:
		return DestPins
	case 1:
		return DestX
	case 2:
		return DestY
	case 3:
		return ReservedDestination
	case 4:
		return DestExec
	case 5:
		return DestPC
	case 6:
		return DestISR
	case 7:
		return DestOSR
	default:
		return UnsetDestination
	}
}

func decodeMovSource(field uint16) Source {
	switch field {
	case 0:
		return SourcePins
	case 1:
		return SourceX
	case 2:
		return SourceY
	case 3:
		return SourceNull
	case 5:
		return SourceStatus
	case 6:
		return SourceISR
	case 7:
		return SourceOSR
	case 4:
		return ReservedSource
	default:
		return UnsetSource
	}
}
