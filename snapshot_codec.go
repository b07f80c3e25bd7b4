package pio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// snapshotVersion is bumped whenever the layout below changes, so a
// Deserialize of an older/newer snapshot fails cleanly instead of
// silently misreading bytes.
const snapshotVersion uint32 = 1

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func byteBool(b byte) bool { return b != 0 }

// Serialize encodes the full dynamic state of hw — every state
// machine's registers and FIFO, every PIO's IRQ lines, every GPIO,
// every user processor's PC and data buffer, every IRQ flag, and every
// user variable — as a versioned, big-endian byte stream. Loaded
// program text (Instructions, Defines, Labels) is not part of the
// snapshot, the same way this is grounded on serializing only live
// registers and leaving program memory untouched.
func Serialize(hw *Hardware) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, snapshotVersion)

	for i := range hw.SMs {
		writeSM(&buf, &hw.SMs[i])
	}
	for p := range hw.PIOs {
		for _, irq := range hw.PIOs[p].IRQs {
			buf.WriteByte(boolByte(irq.Value))
		}
		binary.Write(&buf, binary.BigEndian, hw.PIOs[p].NextLocation)
	}
	for _, g := range hw.GPIOs {
		buf.WriteByte(boolByte(g.Value))
		buf.WriteByte(boolByte(g.Dir))
	}
	for i := range hw.UserProcessors {
		up := &hw.UserProcessors[i]
		binary.Write(&buf, binary.BigEndian, up.PC)
		writeString(&buf, up.Data)
	}
	for _, f := range hw.IRQFlags {
		buf.WriteByte(boolByte(f.Set))
		buf.WriteByte(boolByte(f.MappedToIRQ))
		buf.WriteByte(f.PIO)
		buf.WriteByte(f.PIONum)
	}
	for _, v := range hw.Vars {
		writeString(&buf, v.Name)
		binary.Write(&buf, binary.BigEndian, v.Value)
		buf.WriteByte(boolByte(v.HasValue))
	}
	buf.WriteByte(boolByte(hw.exited))

	return buf.Bytes()
}

func writeSM(buf *bytes.Buffer, sm *StateMachine) {
	binary.Write(buf, binary.BigEndian, sm.PC)
	binary.Write(buf, binary.BigEndian, sm.ScratchX)
	binary.Write(buf, binary.BigEndian, sm.ScratchY)
	binary.Write(buf, binary.BigEndian, sm.OSR)
	binary.Write(buf, binary.BigEndian, sm.ISR)
	buf.WriteByte(sm.ShiftInCount)
	buf.WriteByte(sm.ShiftOutCount)
	buf.WriteByte(boolByte(sm.OSREmpty))
	buf.WriteByte(boolByte(sm.ISRFull))
	buf.WriteByte(sm.ShiftInResumeCount)
	buf.WriteByte(sm.ShiftOutResumeCount)
	binary.Write(buf, binary.BigEndian, sm.ClockTick)
	binary.Write(buf, binary.BigEndian, sm.PCTemp)
	binary.Write(buf, binary.BigEndian, sm.ExecMachineInstruction)

	f := &sm.FIFO
	buf.WriteByte(byte(f.Mode))
	binary.Write(buf, binary.BigEndian, int32(f.rxBottom))
	binary.Write(buf, binary.BigEndian, int32(f.rxTop))
	binary.Write(buf, binary.BigEndian, int32(f.txBottom))
	binary.Write(buf, binary.BigEndian, int32(f.txTop))
	for _, w := range f.buffer {
		binary.Write(buf, binary.BigEndian, w)
	}
	buf.WriteByte(byte(f.RXState))
	buf.WriteByte(byte(f.TXState))
	binary.Write(buf, binary.BigEndian, f.Status)
	buf.WriteByte(boolByte(f.StatusSelTX))
	buf.WriteByte(f.StatusN)
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

// Deserialize decodes a byte stream produced by Serialize back into a
// Hardware's dynamic state, leaving loaded program text untouched (the
// caller is expected to have already loaded the same program before
// restoring a snapshot of it).
func Deserialize(data []byte, hw *Hardware) error {
	r := bytes.NewReader(data)
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return fmt.Errorf("snapshot: read version: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("snapshot: version mismatch: got %d, want %d", version, snapshotVersion)
	}

	for i := range hw.SMs {
		if err := readSM(r, &hw.SMs[i]); err != nil {
			return fmt.Errorf("snapshot: sm %d: %w", i, err)
		}
	}
	for p := range hw.PIOs {
		for i := range hw.PIOs[p].IRQs {
			b, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("snapshot: pio %d irq %d: %w", p, i, err)
			}
			hw.PIOs[p].IRQs[i].Value = byteBool(b)
		}
		if err := binary.Read(r, binary.BigEndian, &hw.PIOs[p].NextLocation); err != nil {
			return fmt.Errorf("snapshot: pio %d next location: %w", p, err)
		}
	}
	for g := range hw.GPIOs {
		v, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: gpio %d value: %w", g, err)
		}
		d, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: gpio %d dir: %w", g, err)
		}
		hw.GPIOs[g] = GPIO{Value: byteBool(v), Dir: byteBool(d)}
	}
	for i := range hw.UserProcessors {
		up := &hw.UserProcessors[i]
		if err := binary.Read(r, binary.BigEndian, &up.PC); err != nil {
			return fmt.Errorf("snapshot: up %d pc: %w", i, err)
		}
		s, err := readString(r)
		if err != nil {
			return fmt.Errorf("snapshot: up %d data: %w", i, err)
		}
		up.Data = s
	}
	for i := range hw.IRQFlags {
		set, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: irq flag %d: %w", i, err)
		}
		mapped, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: irq flag %d mapped: %w", i, err)
		}
		pio, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: irq flag %d pio: %w", i, err)
		}
		pioNum, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: irq flag %d pio num: %w", i, err)
		}
		hw.IRQFlags[i] = IRQFlag{Set: byteBool(set), MappedToIRQ: byteBool(mapped), PIO: pio, PIONum: pioNum}
	}
	for i := range hw.Vars {
		name, err := readString(r)
		if err != nil {
			return fmt.Errorf("snapshot: var %d name: %w", i, err)
		}
		var value uint32
		if err := binary.Read(r, binary.BigEndian, &value); err != nil {
			return fmt.Errorf("snapshot: var %d value: %w", i, err)
		}
		has, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: var %d has-value: %w", i, err)
		}
		hw.Vars[i] = UserVariable{Name: name, Value: value, HasValue: byteBool(has)}
	}
	exited, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("snapshot: exited flag: %w", err)
	}
	hw.exited = byteBool(exited)

	return nil
}

func readSM(r *bytes.Reader, sm *StateMachine) error {
	if err := binary.Read(r, binary.BigEndian, &sm.PC); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.ScratchX); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.ScratchY); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.OSR); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.ISR); err != nil {
		return err
	}
	var b byte
	var err error
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.ShiftInCount = b
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.ShiftOutCount = b
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.OSREmpty = byteBool(b)
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.ISRFull = byteBool(b)
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.ShiftInResumeCount = b
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	sm.ShiftOutResumeCount = b
	if err := binary.Read(r, binary.BigEndian, &sm.ClockTick); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.PCTemp); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &sm.ExecMachineInstruction); err != nil {
		return err
	}

	f := &sm.FIFO
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	f.Mode = FifoMode(b)
	var i32 int32
	if err := binary.Read(r, binary.BigEndian, &i32); err != nil {
		return err
	}
	f.rxBottom = int(i32)
	if err := binary.Read(r, binary.BigEndian, &i32); err != nil {
		return err
	}
	f.rxTop = int(i32)
	if err := binary.Read(r, binary.BigEndian, &i32); err != nil {
		return err
	}
	f.txBottom = int(i32)
	if err := binary.Read(r, binary.BigEndian, &i32); err != nil {
		return err
	}
	f.txTop = int(i32)
	for i := range f.buffer {
		if err := binary.Read(r, binary.BigEndian, &f.buffer[i]); err != nil {
			return err
		}
	}
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	f.RXState = FifoState(b)
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	f.TXState = FifoState(b)
	if err := binary.Read(r, binary.BigEndian, &f.Status); err != nil {
		return err
	}
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	f.StatusSelTX = byteBool(b)
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	f.StatusN = b

	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := r.Read(out); err != nil {
		return "", err
	}
	return string(out), nil
}
