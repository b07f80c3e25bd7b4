package pio

import "testing"

func newTestHardware() *Hardware {
	return NewHardware()
}

// S1 - blink-like side-set on SET.
func TestScenarioBlinkSideSet(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.Config.SetSetPins(0, 1)
	sm.Config.SetSidesetPins(1)
	sm.Config.SetSidesetParams(1, false, false)
	sm.PC = 0

	prog := [2]Instruction{
		{Kind: KindSet, Destination: DestPins, IndexOrValue: 1, SideSetValue: 0, Delay: 1},
		{Kind: KindSet, Destination: DestPins, IndexOrValue: 0, SideSetValue: 1, Delay: 1},
	}
	pio := &hw.PIOs[0]
	pio.Instructions[0] = prog[0]
	pio.Instructions[1] = prog[1]
	pio.NextLocation = 2

	var gpio0, gpio1 []bool
	for tick := 0; tick < 4; tick++ {
		instr := &pio.Instructions[sm.PC]
		RunInstruction(hw, sm, instr)
		gpio0 = append(gpio0, hw.GetGPIO(0))
		gpio1 = append(gpio1, hw.GetGPIO(1))
	}

	wantGPIO0 := []bool{true, true, false, false}
	wantGPIO1 := []bool{false, false, true, true}
	for i := range wantGPIO0 {
		if gpio0[i] != wantGPIO0[i] {
			t.Errorf("gpio0[%d] = %v, want %v", i, gpio0[i], wantGPIO0[i])
		}
		if gpio1[i] != wantGPIO1[i] {
			t.Errorf("gpio1[%d] = %v, want %v", i, gpio1[i], wantGPIO1[i])
		}
	}
}

// S2 - blocking PUSH (via autopush) stalls then releases once the host drains the TX FIFO.
func TestScenarioAutopushStallThenRelease(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.Config.SetInShift(false, true, 8) // autopush at threshold 8
	sm.FIFO.Init(FifoBidi)
	// fill TX half full (4 of 4) so autopush cannot push yet
	for i := 0; i < 4; i++ {
		sm.FIFO.Push(0)
	}

	instr := &Instruction{Kind: KindIn, Source: SourceX, BitCount: 8}
	sm.ScratchX = 0xAB

	if RunInstruction(hw, sm, instr) {
		t.Fatal("IN with full TX fifo should stall on autopush, not complete")
	}
	if sm.ISRFull == false {
		t.Fatal("ISR should be marked full even while autopush stalls")
	}

	v, ok := sm.FIFO.Read()
	if !ok || v != 0 {
		t.Fatalf("host read: got (%#x, %v)", v, ok)
	}

	if !RunInstruction(hw, sm, instr) {
		t.Fatal("IN should complete once TX fifo has room for autopush")
	}
	if sm.ISR != 0 {
		t.Fatalf("ISR = %#x, want 0 after autopush", sm.ISR)
	}
	if sm.ShiftInCount != 0 {
		t.Fatalf("ShiftInCount = %d, want 0 after autopush", sm.ShiftInCount)
	}
	if sm.ISRFull {
		t.Fatal("ISRFull should be false after autopush completes")
	}
	if sm.FIFO.txDepth() != 4 {
		t.Fatalf("tx depth = %d, want 4 (3 remaining + 1 autopushed)", sm.FIFO.txDepth())
	}
}

// S3 - JMP X-- loop.
func TestScenarioJmpXMinusMinusLoop(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.ScratchX = 3
	sm.PC = 0
	hw.Labels["L"] = LabelLocation{Label: "L", Location: 0}

	pio := &hw.PIOs[0]
	pio.Instructions[0] = Instruction{Kind: KindJmp, Condition: XDecrement, Label: "L"}
	pio.Instructions[1] = Instruction{Kind: KindNop}
	pio.NextLocation = 2

	branches := 0
	for i := 0; i < 4; i++ {
		instr := &pio.Instructions[sm.PC]
		wasJmp := instr.Kind == KindJmp
		beforePC := sm.PC
		RunInstruction(hw, sm, instr)
		if wasJmp && sm.PC == beforePC {
			branches++
		}
	}
	if branches != 3 {
		t.Fatalf("branches = %d, want 3", branches)
	}
	if sm.ScratchX != 0 {
		t.Fatalf("ScratchX = %d, want 0", sm.ScratchX)
	}
	if sm.PC != 1 {
		t.Fatalf("PC = %d, want 1 (at NOP)", sm.PC)
	}
}

// S4 - OUT to PC.
func TestScenarioOutToPC(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.OSR = 0x00000002
	sm.OSREmpty = false
	sm.Config.OutShiftRight = true
	sm.Config.PullThreshold = -1 // no threshold, treated as 32
	sm.PC = 3

	pio := &hw.PIOs[0]
	pio.NextLocation = 4
	instr := Instruction{Kind: KindOut, Destination: DestPC, BitCount: 0} // 0 encodes 32

	completed := RunInstruction(hw, sm, &instr)
	if !completed {
		t.Fatal("OUT PC,32 should complete in one tick")
	}
	if sm.PC != 2 {
		t.Fatalf("PC = %d, want 2", sm.PC)
	}
}

func TestScenarioOutToPCOutOfRangeLeavesUnchanged(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.OSR = 99
	sm.OSREmpty = false
	sm.Config.PullThreshold = -1
	sm.PC = 3

	pio := &hw.PIOs[0]
	pio.NextLocation = 4
	instr := Instruction{Kind: KindOut, Destination: DestPC, BitCount: 0}

	RunInstruction(hw, sm, &instr)
	if sm.PC != 4 {
		t.Fatalf("PC = %d, want unchanged-plus-increment 4 when target out of range", sm.PC)
	}
}

// S5 - non-blocking PULL from empty.
func TestScenarioNonBlockingPullFromEmpty(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.ScratchX = 0xDEADBEEF
	instr := Instruction{Kind: KindPull, Block: false}

	if !RunInstruction(hw, sm, &instr) {
		t.Fatal("non-blocking PULL from empty should complete on first tick")
	}
	if sm.OSR != 0xDEADBEEF {
		t.Fatalf("OSR = %#x, want 0xDEADBEEF", sm.OSR)
	}
	if sm.ShiftOutCount != 0 {
		t.Fatalf("ShiftOutCount = %d, want 0", sm.ShiftOutCount)
	}
}

func TestOutToExecOneLevelOnly(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.Config.OutShiftRight = true

	// A SET X,7 instruction word, decoded and run as the recursed EXEC body.
	setWord := uint16(0b111_00000_001_00111)
	sm.OSR = uint32(setWord)
	sm.OSREmpty = false

	instr := Instruction{Kind: KindOut, Destination: DestExec, BitCount: 16}
	if !RunInstruction(hw, sm, &instr) {
		t.Fatal("OUT to EXEC should complete")
	}
	if sm.ScratchX != 7 {
		t.Fatalf("ScratchX = %d, want 7 (via recursively executed SET)", sm.ScratchX)
	}
}

func TestOutToExecRefusesNestedExec(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.Config.OutShiftRight = true

	// An OUT EXEC,32 word (destination field 7 selects EXEC), itself
	// targeting EXEC again.
	nestedWord := uint16(0b011_00000_111_00000)
	sm.OSR = uint32(nestedWord)
	sm.OSREmpty = false

	instr := Instruction{Kind: KindOut, Destination: DestExec, BitCount: 16}
	if !RunInstruction(hw, sm, &instr) {
		t.Fatal("OUT to EXEC with a refused nested decode should still report completed")
	}
	if sm.ExecInstruction.Kind != KindEmpty {
		t.Fatalf("ExecInstruction.Kind = %v, want KindEmpty after refusing nested EXEC", sm.ExecInstruction.Kind)
	}
}

func TestMovInvertTwiceIsIdentity(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.ScratchX = 0x12345678
	instr := Instruction{Kind: KindMov, Source: SourceX, Destination: DestY, Operation: OpInvert}
	RunInstruction(hw, sm, &instr)
	first := sm.ScratchY

	instr2 := Instruction{Kind: KindMov, Source: SourceY, Destination: DestX, Operation: OpInvert}
	RunInstruction(hw, sm, &instr2)
	if sm.ScratchX != 0x12345678 {
		t.Fatalf("double invert = %#x, want original 0x12345678 (via %#x)", sm.ScratchX, first)
	}
}

func TestMovBitReverseTwiceIsIdentity(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	sm.ScratchX = 0x0000000F
	instr := Instruction{Kind: KindMov, Source: SourceX, Destination: DestY, Operation: OpBitReverse}
	RunInstruction(hw, sm, &instr)
	instr2 := Instruction{Kind: KindMov, Source: SourceY, Destination: DestX, Operation: OpBitReverse}
	RunInstruction(hw, sm, &instr2)
	if sm.ScratchX != 0x0000000F {
		t.Fatalf("double bit-reverse = %#x, want original 0xF", sm.ScratchX)
	}
}

func TestDelayDefersCompletion(t *testing.T) {
	hw := newTestHardware()
	sm := hw.SM(0, 0)
	instr := Instruction{Kind: KindNop, Delay: 2}

	if RunInstruction(hw, sm, &instr) {
		t.Fatal("instruction with delay=2 should not complete on tick 0")
	}
	if RunInstruction(hw, sm, &instr) {
		t.Fatal("instruction with delay=2 should not complete on tick 1")
	}
	if !RunInstruction(hw, sm, &instr) {
		t.Fatal("instruction with delay=2 should complete on tick 2")
	}
}
