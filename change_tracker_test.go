package pio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Snapshot/GetChanged reports exactly the fields mutated since the last
// Snapshot call, nothing more.
func TestChangeTrackerReportsOnlyMutatedFields(t *testing.T) {
	hw := NewHardware()
	tracker := NewChangeTracker(hw)
	tracker.Snapshot()

	sm := hw.SM(0, 0)
	sm.ScratchX = 0x42

	changed := tracker.GetChanged()
	assert.True(t, changed.SMs[0].ScratchX, "ScratchX should be reported changed")
	assert.False(t, changed.SMs[0].ScratchY, "ScratchY should not be reported changed")
	assert.False(t, changed.SMs[0].OSR)
	assert.False(t, changed.SMs[0].ISR)
	for i := 1; i < NumSMs; i++ {
		assert.Equal(t, SMChanged{FIFO: CompareMatch}, changed.SMs[i], "sm %d should report no change", i)
	}
	for p := range changed.PIOIRQs {
		for i := range changed.PIOIRQs[p] {
			assert.False(t, changed.PIOIRQs[p][i])
		}
	}
	for g := range changed.GPIOs {
		assert.Equal(t, GPIOChanged{}, changed.GPIOs[g])
	}
}

func TestChangeTrackerGPIOAndIRQDiffs(t *testing.T) {
	hw := NewHardware()
	tracker := NewChangeTracker(hw)
	tracker.Snapshot()

	hw.SetGPIO(3, true)
	hw.PIOs[1].IRQs[0].Value = true

	changed := tracker.GetChanged()
	assert.True(t, changed.GPIOs[3].Value)
	assert.False(t, changed.GPIOs[3].Dir)
	assert.True(t, changed.PIOIRQs[1][0])
	assert.False(t, changed.PIOIRQs[0][0])
}

func TestChangeTrackerFIFOCompare(t *testing.T) {
	hw := NewHardware()
	tracker := NewChangeTracker(hw)
	tracker.Snapshot()

	sm := hw.SM(1, 2)
	sm.FIFO.Write(7)

	changed := tracker.GetChanged()
	if changed.SMs[1*NumSMsPerPIO+2].FIFO == CompareMatch {
		t.Fatal("FIFO write should be reported as a change")
	}
}

// A second Snapshot re-baselines: changes already observed should no
// longer show up against the new baseline.
func TestChangeTrackerResnapshotClearsDiff(t *testing.T) {
	hw := NewHardware()
	tracker := NewChangeTracker(hw)
	tracker.Snapshot()
	hw.SM(0, 0).ScratchX = 9
	tracker.Snapshot()

	changed := tracker.GetChanged()
	assert.False(t, changed.SMs[0].ScratchX)
}

func TestGPIOHistoryOldestFirstBeforeWrap(t *testing.T) {
	hw := NewHardware()
	hist := NewGPIOHistory()

	for tick := uint32(0); tick < 5; tick++ {
		hw.SetGPIO(0, tick%2 == 0)
		hist.Update(hw, tick)
	}

	n := hist.Iteration()
	if n != 5 {
		t.Fatalf("Iteration() = %d, want 5", n)
	}
	for tick := uint32(0); tick < 5; tick++ {
		entry, ok := hist.Get()
		if !ok {
			t.Fatalf("Get() ran out at tick %d", tick)
		}
		if entry.ClockTick != tick {
			t.Fatalf("entry.ClockTick = %d, want %d", entry.ClockTick, tick)
		}
	}
	if _, ok := hist.Get(); ok {
		t.Fatal("Get() should return ok=false once all 5 entries are consumed")
	}
}

func TestGPIOHistoryOldestFirstAfterWrap(t *testing.T) {
	hw := NewHardware()
	hist := NewGPIOHistory()

	total := MaxGPIOHistory + 10
	for tick := uint32(0); tick < uint32(total); tick++ {
		hist.Update(hw, tick)
	}

	n := hist.Iteration()
	if n != MaxGPIOHistory {
		t.Fatalf("Iteration() = %d, want %d", n, MaxGPIOHistory)
	}
	wantFirst := uint32(total - MaxGPIOHistory)
	entry, ok := hist.Get()
	if !ok || entry.ClockTick != wantFirst {
		t.Fatalf("first entry after wrap: ClockTick = %d, want %d (ok=%v)", entry.ClockTick, wantFirst, ok)
	}
	count := 1
	last := entry.ClockTick
	for {
		e, ok := hist.Get()
		if !ok {
			break
		}
		if e.ClockTick != last+1 {
			t.Fatalf("history not oldest-first contiguous: got %d after %d", e.ClockTick, last)
		}
		last = e.ClockTick
		count++
	}
	if count != MaxGPIOHistory {
		t.Fatalf("consumed %d entries, want %d", count, MaxGPIOHistory)
	}
}
