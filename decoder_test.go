package pio

import "testing"

func TestDecodeJmp(t *testing.T) {
	// JMP condition=XZero (001), delay=0, side-set width 0, target=5
	word := uint16(0b000_00000_001_00101)
	instr := Decode(word, 0)
	if instr.Kind != KindJmp {
		t.Fatalf("Kind = %v, want KindJmp", instr.Kind)
	}
	if instr.Condition != XZero {
		t.Fatalf("Condition = %v, want XZero", instr.Condition)
	}
	if instr.JmpPC != 4 {
		t.Fatalf("JmpPC = %d, want 4 (target-1)", instr.JmpPC)
	}
	if !instr.JmpPCSet {
		t.Fatal("JmpPCSet should be true for a directly decoded JMP")
	}
	if instr.SideSetValue != -1 {
		t.Fatalf("SideSetValue = %d, want -1 (JMP never carries side-set)", instr.SideSetValue)
	}
}

func TestDecodeWait(t *testing.T) {
	// WAIT polarity=1, source=IRQ(10), index=3
	word := uint16(0b001_00000_1_10_00011)
	instr := Decode(word, 0)
	if instr.Kind != KindWait {
		t.Fatalf("Kind = %v, want KindWait", instr.Kind)
	}
	if !instr.Polarity {
		t.Fatal("Polarity should be true")
	}
	if instr.WaitSource != WaitIRQ {
		t.Fatalf("WaitSource = %v, want WaitIRQ", instr.WaitSource)
	}
	if instr.IndexOrValue != 3 {
		t.Fatalf("IndexOrValue = %d, want 3", instr.IndexOrValue)
	}
}

func TestDecodeMovOperationIndependentOfSource(t *testing.T) {
	// MOV dest=X(001), op=bit_reverse(10), source=OSR(111)
	word := uint16(0b101_00000_001_10_111)
	instr := Decode(word, 0)
	if instr.Kind != KindMov {
		t.Fatalf("Kind = %v, want KindMov", instr.Kind)
	}
	if instr.Destination != DestX {
		t.Fatalf("Destination = %v, want DestX", instr.Destination)
	}
	if instr.Operation != OpBitReverse {
		t.Fatalf("Operation = %v, want OpBitReverse", instr.Operation)
	}
	if instr.Source != SourceOSR {
		t.Fatalf("Source = %v, want SourceOSR (must not be clobbered by Operation decode)", instr.Source)
	}
}

func TestDecodeOutExec(t *testing.T) {
	word := uint16(0b011_00000_111_00000) // OUT EXEC, 0 (encodes 32 bits)
	instr := Decode(word, 0)
	if instr.Kind != KindOut {
		t.Fatalf("Kind = %v, want KindOut", instr.Kind)
	}
	if instr.Destination != DestExec {
		t.Fatalf("Destination = %v, want DestExec", instr.Destination)
	}
	if instr.BitCount != 0 {
		t.Fatalf("BitCount = %d, want 0 (canonicalized to 32 at use)", instr.BitCount)
	}
}

func TestDecodeDelayAndSideSetSplit(t *testing.T) {
	// side-set width 2: delay occupies bits 8..10, side-set bits 11..12
	word := uint16(0b111_11_101_0_00_00000) // SET, sideset=11(3), delay=101(5)
	instr := Decode(word, 2)
	if instr.Delay != 5 {
		t.Fatalf("Delay = %d, want 5", instr.Delay)
	}
	if instr.SideSetValue != 3 {
		t.Fatalf("SideSetValue = %d, want 3", instr.SideSetValue)
	}
}

func TestDecodeSetReservedDestination(t *testing.T) {
	word := uint16(0b111_00000_011_00000) // SET with reserved destination field 3
	instr := Decode(word, 0)
	if instr.Destination != ReservedDestination {
		t.Fatalf("Destination = %v, want ReservedDestination", instr.Destination)
	}
}
