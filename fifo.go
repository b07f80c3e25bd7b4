package pio

// FifoMode selects how the two 4-deep FIFO halves of a state machine
// are joined: independent bidirectional halves (BIDI, the default), or
// merged into a single 8-deep half dedicated to one direction.
type FifoMode int

const (
	FifoBidi FifoMode = iota
	FifoRXOnly
	FifoTXOnly
)

// FifoState reports fullness of one FIFO half.
type FifoState int

const (
	FifoFull FifoState = iota
	FifoEmpty
	FifoHasData
)

// FifoCompareTag is the result of comparing two FIFOs, in the same
// check order as the simulator this package is modeled on: state
// before contents, RX before TX, first difference wins.
type FifoCompareTag int

const (
	CompareRXState FifoCompareTag = iota
	CompareTXState
	CompareRXContents
	CompareTXContents
	CompareMatch
)

// FIFO is the 8-word FIFO shared by the host (via WRITE/READ-style user
// instructions) and the state machine (via PUSH/PULL). Depending on
// Mode, it behaves as two independent 4-deep halves or one 8-deep half.
//
// Implemented as a ring buffer with head/tail cursors per half rather
// than the shift-array the original simulator uses; either is
// observably identical at this interface. rxBottom/rxTop and
// txBottom/txTop are monotonically increasing logical cursors, not
// buffer indices directly: the physical slot for cursor c is
// base + c%capacity, so sustained traffic that never drains a half to
// exactly empty still wraps cleanly within that half's region instead
// of walking off the end of buffer or into the other half's slots.
type FIFO struct {
	buffer [8]uint32
	Mode   FifoMode

	rxBase, txBase int // physical offset of each half's region within buffer

	rxBottom, rxTop int // tx-queue cursors (WRITE feeds, PULL drains); -1 sentinel when unused
	txBottom, txTop int // rx-queue cursors (PUSH feeds, READ drains); -1 sentinel when unused

	RXState FifoState
	TXState FifoState

	Status      uint32
	StatusSelTX bool // EXECCTRL_STATUS_SEL: false selects RX level, true selects TX level
	StatusN     uint8
}

// Init (re)initializes the FIFO for the given mode, matching the
// original's fifo_init: BIDI splits the 8 words into two 4-deep halves,
// the merged modes dedicate the whole buffer to one direction.
// RX_ONLY/TX_ONLY name which queue the merged 8-deep half serves: per
// the original's fifo.c, RX_ONLY keeps the rx queue (PUSH/READ) and
// disables the tx queue (WRITE/PULL); TX_ONLY is the reverse.
//
// StatusN/StatusSelTX are reset to the documented MOV STATUS defaults
// (status_sel_is_rx, N = the active queue's full depth) here; a config
// applied later via StateMachine.SetMovStatus overrides them live.
func (f *FIFO) Init(mode FifoMode) {
	f.Mode = mode
	f.buffer = [8]uint32{}
	f.rxBase, f.txBase = 0, 4
	switch mode {
	case FifoBidi:
		f.rxBottom, f.rxTop = 0, 0
		f.txBottom, f.txTop = 0, 0
	case FifoRXOnly:
		f.rxBase, f.txBase = 0, 0
		f.rxBottom, f.rxTop = -1, -1
		f.txBottom, f.txTop = 0, 0
	case FifoTXOnly:
		f.rxBase, f.txBase = 0, 0
		f.rxBottom, f.rxTop = 0, 0
		f.txBottom, f.txTop = -1, -1
	}
	f.RXState = FifoEmpty
	f.TXState = FifoEmpty
	f.StatusN = 4
	if mode != FifoBidi {
		f.StatusN = 8
	}
	f.StatusSelTX = false
	f.setStatus()
}

func (f *FIFO) rxDepth() int {
	if f.rxBottom < 0 {
		return 0
	}
	return f.rxTop - f.rxBottom
}

func (f *FIFO) txDepth() int {
	if f.txBottom < 0 {
		return 0
	}
	return f.txTop - f.txBottom
}

func (f *FIFO) rxCapacity() int {
	if f.Mode == FifoBidi {
		return 4
	}
	return 8
}

func (f *FIFO) txCapacity() int {
	if f.Mode == FifoBidi {
		return 4
	}
	return 8
}

// setStatus recomputes Status from the selected queue's depth against
// StatusN. StatusSelTX names the logical queue, not the cursor pair: the
// TX queue (write/pull) lives in rxBottom/rxTop here, and the RX queue
// (push/read) lives in txBottom/txTop, so the TX selection reads
// rxDepth() and the RX selection reads txDepth().
func (f *FIFO) setStatus() {
	var level int
	if f.StatusSelTX {
		level = f.rxDepth()
	} else {
		level = f.txDepth()
	}
	if level < int(f.StatusN) {
		f.Status = StatusAllOnes
	} else {
		f.Status = StatusAllZeros
	}
}

// rxSlot/txSlot map a half's monotonic cursor to its physical buffer
// slot, wrapping within that half's region so sustained traffic that
// never drains to exactly empty still stays in bounds.
func (f *FIFO) rxSlot(cursor int) int {
	return f.rxBase + cursor%f.rxCapacity()
}

func (f *FIFO) txSlot(cursor int) int {
	return f.txBase + cursor%f.txCapacity()
}

// Write stores a value from the host side into the tx queue (host ->
// state machine direction, drained by PULL), used by the WRITE user
// meta-instruction. Fails in RX_ONLY mode.
func (f *FIFO) Write(value uint32) bool {
	if f.rxBottom < 0 || f.rxDepth() >= f.rxCapacity() {
		return false
	}
	f.buffer[f.rxSlot(f.rxTop)] = value
	f.rxTop++
	f.RXState = f.stateFor(f.rxDepth(), f.rxCapacity())
	f.setStatus()
	return true
}

// Read pops a value from the rx queue (state machine -> host
// direction, fed by PUSH), used by the READ user meta-instruction.
// Fails in TX_ONLY mode.
func (f *FIFO) Read() (uint32, bool) {
	if f.txBottom < 0 || f.txDepth() == 0 {
		return 0, false
	}
	v := f.buffer[f.txSlot(f.txBottom)]
	f.txBottom++
	f.rebaseTX()
	f.TXState = f.stateFor(f.txDepth(), f.txCapacity())
	f.setStatus()
	return v, true
}

// Push stores a value from the state machine into the rx queue (PUSH).
// Fails in TX_ONLY mode.
func (f *FIFO) Push(value uint32) bool {
	if f.txBottom < 0 || f.txDepth() >= f.txCapacity() {
		return false
	}
	f.buffer[f.txSlot(f.txTop)] = value
	f.txTop++
	f.TXState = f.stateFor(f.txDepth(), f.txCapacity())
	f.setStatus()
	return true
}

// Pull retrieves a value for the state machine from the tx queue
// (PULL). Fails in RX_ONLY mode.
func (f *FIFO) Pull() (uint32, bool) {
	if f.rxBottom < 0 || f.rxDepth() == 0 {
		return 0, false
	}
	v := f.buffer[f.rxSlot(f.rxBottom)]
	f.rxBottom++
	f.rebaseRX()
	f.RXState = f.stateFor(f.rxDepth(), f.rxCapacity())
	f.setStatus()
	return v, true
}

// rebaseRX/rebaseTX reset a fully-drained half's cursors back to zero.
// Not required for correctness (rxSlot/txSlot wrap regardless of how
// large the cursors grow) but keeps them from climbing unboundedly
// over a long-running simulation.
func (f *FIFO) rebaseRX() {
	if f.rxBottom == f.rxTop {
		f.rxBottom, f.rxTop = 0, 0
	}
}

func (f *FIFO) rebaseTX() {
	if f.txBottom == f.txTop {
		f.txBottom, f.txTop = 0, 0
	}
}

func (f *FIFO) stateFor(depth, capacity int) FifoState {
	switch {
	case depth == 0:
		return FifoEmpty
	case depth >= capacity:
		return FifoFull
	default:
		return FifoHasData
	}
}

// Copy duplicates all fields of f into dst, for Snapshot use.
func (f *FIFO) Copy(dst *FIFO) {
	*dst = *f
}

// Compare reports the first difference between f and other, in the
// order: rx state, tx state, rx contents, tx contents, else Match.
func (f *FIFO) Compare(other *FIFO) FifoCompareTag {
	if f.RXState != other.RXState {
		return CompareRXState
	}
	if f.TXState != other.TXState {
		return CompareTXState
	}
	if f.rxDepth() != other.rxDepth() {
		return CompareRXContents
	}
	for i := 0; i < f.rxDepth(); i++ {
		if f.buffer[f.rxSlot(f.rxBottom+i)] != other.buffer[other.rxSlot(other.rxBottom+i)] {
			return CompareRXContents
		}
	}
	if f.txDepth() != other.txDepth() {
		return CompareTXContents
	}
	for i := 0; i < f.txDepth(); i++ {
		if f.buffer[f.txSlot(f.txBottom+i)] != other.buffer[other.txSlot(other.txBottom+i)] {
			return CompareTXContents
		}
	}
	return CompareMatch
}
