package pio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	hw := NewHardware()
	sm := hw.SM(1, 3)
	sm.PC = 5
	sm.ScratchX = 0xDEADBEEF
	sm.ScratchY = 0x12345678
	sm.OSR = 0xAAAA
	sm.ISR = 0x5555
	sm.ISRFull = true
	sm.FIFO.Write(1)
	sm.FIFO.Write(2)
	hw.SetGPIO(7, true)
	hw.SetGPIODir(7, true)
	hw.UserProcessors[0].PC = 2
	hw.UserProcessors[0].Data = "hello"
	hw.DefineVar("x")
	hw.SetVar("x", 42)
	hw.IRQFlags[3].Set = true

	data := Serialize(hw)

	restored := NewHardware()
	err := Deserialize(data, restored)
	require.NoError(t, err)

	got := restored.SM(1, 3)
	assert.Equal(t, int32(5), got.PC)
	assert.Equal(t, uint32(0xDEADBEEF), got.ScratchX)
	assert.Equal(t, uint32(0x12345678), got.ScratchY)
	assert.Equal(t, uint32(0xAAAA), got.OSR)
	assert.Equal(t, uint32(0x5555), got.ISR)
	assert.True(t, got.ISRFull)
	v, ok := got.FIFO.Pull()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v)

	assert.True(t, restored.GetGPIO(7))
	assert.True(t, restored.GetGPIODir(7))
	assert.Equal(t, int32(2), restored.UserProcessors[0].PC)
	assert.Equal(t, "hello", restored.UserProcessors[0].Data)
	val, ok := restored.GetVar("x")
	assert.True(t, ok)
	assert.Equal(t, uint32(42), val)
	assert.True(t, restored.IRQFlags[3].Set)
}

func TestSnapshotVersionMismatchRejected(t *testing.T) {
	hw := NewHardware()
	data := Serialize(hw)
	data[3] = byte(snapshotVersion + 1) // corrupt the low byte of the big-endian version

	err := Deserialize(data, NewHardware())
	require.Error(t, err)
}

func TestSnapshotLeavesProgramTextUntouched(t *testing.T) {
	hw := NewHardware()
	hw.PIOs[0].Instructions[0] = Instruction{Kind: KindNop, Line: 99}
	data := Serialize(hw)

	restored := NewHardware()
	restored.PIOs[0].Instructions[0] = Instruction{Kind: KindNop, Line: 99}
	require.NoError(t, Deserialize(data, restored))

	assert.Equal(t, 99, restored.PIOs[0].Instructions[0].Line)
}
