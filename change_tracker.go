package pio

// SMChanged reports which parts of one state machine's observable state
// differ from the last snapshot.
type SMChanged struct {
	FIFO                   FifoCompareTag
	ScratchX               bool
	ScratchY               bool
	OSR                    bool
	ISR                    bool
	ShiftOutCount          bool
	ShiftInCount           bool
	ExecMachineInstruction bool
}

// GPIOChanged reports whether a pin's driven value or direction differs
// from the last snapshot.
type GPIOChanged struct {
	Value bool
	Dir   bool
}

// HardwareChanged is the full diff of a Hardware against its last
// ChangeTracker.Snapshot, for a host UI to highlight what just moved.
type HardwareChanged struct {
	PIOIRQs [NumPIOs][NumIRQs]bool
	GPIOs   [NumGPIOs]GPIOChanged
	SMs     [NumSMs]SMChanged
}

type smSnapshot struct {
	fifo                   FIFO
	scratchX, scratchY     uint32
	osr, isr               uint32
	shiftOutCount          uint8
	shiftInCount           uint8
	execMachineInstruction uint16
}

// ChangeTracker records a baseline of a Hardware's observable state and
// reports what has changed against it, for driving a host UI's
// highlight-what-just-changed display.
type ChangeTracker struct {
	hw *Hardware

	pioIRQs [NumPIOs][NumIRQs]bool
	sms     [NumSMs]smSnapshot
	gpios   [NumGPIOs]GPIO
}

// NewChangeTracker builds a tracker over hw. Call Snapshot before the
// first GetChanged to establish a meaningful baseline.
func NewChangeTracker(hw *Hardware) *ChangeTracker {
	return &ChangeTracker{hw: hw}
}

// Snapshot records the current state of every PIO's IRQ lines, every
// state machine's FIFO/scratch/shift-register state, and every GPIO's
// value and direction.
func (c *ChangeTracker) Snapshot() {
	for p := range c.hw.PIOs {
		for i := range c.hw.PIOs[p].IRQs {
			c.pioIRQs[p][i] = c.hw.PIOs[p].IRQs[i].Value
		}
	}
	for i := range c.hw.SMs {
		sm := &c.hw.SMs[i]
		sm.FIFO.Copy(&c.sms[i].fifo)
		c.sms[i].scratchX = sm.ScratchX
		c.sms[i].scratchY = sm.ScratchY
		c.sms[i].osr = sm.OSR
		c.sms[i].isr = sm.ISR
		c.sms[i].shiftOutCount = sm.ShiftOutCount
		c.sms[i].shiftInCount = sm.ShiftInCount
		c.sms[i].execMachineInstruction = sm.ExecMachineInstruction
	}
	for g := range c.hw.GPIOs {
		c.gpios[g] = c.hw.GPIOs[g]
	}
}

// GetChanged compares current state against the last Snapshot and
// returns what differs.
func (c *ChangeTracker) GetChanged() HardwareChanged {
	var changed HardwareChanged

	for p := range c.hw.PIOs {
		for i := range c.hw.PIOs[p].IRQs {
			changed.PIOIRQs[p][i] = c.hw.PIOs[p].IRQs[i].Value != c.pioIRQs[p][i]
		}
	}
	for i := range c.hw.SMs {
		sm := &c.hw.SMs[i]
		snap := &c.sms[i]
		changed.SMs[i] = SMChanged{
			FIFO:                   sm.FIFO.Compare(&snap.fifo),
			ScratchX:               sm.ScratchX != snap.scratchX,
			ScratchY:               sm.ScratchY != snap.scratchY,
			OSR:                    sm.OSR != snap.osr,
			ISR:                    sm.ISR != snap.isr,
			ShiftOutCount:          sm.ShiftOutCount != snap.shiftOutCount,
			ShiftInCount:           sm.ShiftInCount != snap.shiftInCount,
			ExecMachineInstruction: sm.ExecMachineInstruction != snap.execMachineInstruction,
		}
	}
	for g := range c.hw.GPIOs {
		changed.GPIOs[g] = GPIOChanged{
			Value: c.hw.GPIOs[g].Value != c.gpios[g].Value,
			Dir:   c.hw.GPIOs[g].Dir != c.gpios[g].Dir,
		}
	}
	return changed
}

// GPIOHistoryEntry is one recorded tick of every pin's driven value.
type GPIOHistoryEntry struct {
	Values    [NumGPIOs]bool
	ClockTick uint32
}

// GPIOHistory is a fixed-capacity ring buffer of GPIO snapshots for
// building pin timelines. Unlike the tracker this is grounded on —
// which advances its write index before checking capacity, leaving slot
// zero unused and stepping one slot past the backing array on the
// transition into wrapping — this keeps the write index in range from
// the first call and corrects that off-by-one while preserving the same
// oldest-first iteration order once full.
type GPIOHistory struct {
	entries      [MaxGPIOHistory]GPIOHistoryEntry
	count        int
	currentIndex int // index of the most recently written entry
	iterIndex    int
}

// NewGPIOHistory builds an empty history.
func NewGPIOHistory() *GPIOHistory {
	h := &GPIOHistory{}
	h.Init()
	return h
}

// Init clears the history and returns its capacity.
func (h *GPIOHistory) Init() int {
	h.count = 0
	h.currentIndex = -1
	return MaxGPIOHistory
}

// Update records one tick's GPIO values, evicting the oldest entry once
// the history is full.
func (h *GPIOHistory) Update(hw *Hardware, clockTick uint32) {
	if h.count < MaxGPIOHistory {
		h.currentIndex++
		h.count++
	} else {
		h.currentIndex = (h.currentIndex + 1) % MaxGPIOHistory
	}
	entry := &h.entries[h.currentIndex]
	entry.ClockTick = clockTick
	for g := range hw.GPIOs {
		entry.Values[g] = hw.GPIOs[g].Value
	}
}

// Iteration resets the read cursor to the oldest stored entry and
// returns how many entries are available to retrieve with Get.
func (h *GPIOHistory) Iteration() int {
	h.iterIndex = 0
	return h.count
}

// Get returns the next entry in oldest-first order, or ok=false once
// every stored entry (per the count Iteration returned) has been
// returned.
func (h *GPIOHistory) Get() (entry GPIOHistoryEntry, ok bool) {
	if h.iterIndex >= h.count {
		return GPIOHistoryEntry{}, false
	}
	i := h.iterIndex
	h.iterIndex++
	if h.count < MaxGPIOHistory {
		return h.entries[i], true
	}
	oldest := (h.currentIndex + 1) % MaxGPIOHistory
	return h.entries[(oldest+i)%MaxGPIOHistory], true
}
