// Package pio is the core of a cycle-accurate simulator for a small,
// fixed-function programmable I/O subsystem patterned after the
// RP2040's PIO block, plus a cooperating user processor that scripts
// host-side interaction with it over a FIFO.
//
// The package models two PIO blocks of four state machines each, a
// 32-pin GPIO bank, per-PIO interrupt lines, and two user processors.
// Programs are supplied already decoded (instruction memory is not
// modeled as raw 16-bit words, except for the one level of recursive
// decode OUT/MOV-to-EXEC perform at runtime).
package pio
