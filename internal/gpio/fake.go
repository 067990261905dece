package gpio

import (
	"errors"
	"sync"
)

// FakePins is a test double that returns scripted input levels and records
// writes to the operate line.
type FakePins struct {
	mu sync.Mutex

	// Samples contains scripted levels per input line.
	// Each call to Read(line) consumes the next value for that line.
	Samples map[Line][]bool

	// index tracks current position per line
	index map[Line]int

	// Reads counts Read calls per line.
	Reads map[Line]int

	// Writes records every value written, in order.
	Writes []Write

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// Write is a single recorded output change.
type Write struct {
	Line Line
	High bool
}

// NewFakePins creates a FakePins with the given per-line samples.
func NewFakePins(samples map[Line][]bool) *FakePins {
	if samples == nil {
		samples = make(map[Line][]bool)
	}
	return &FakePins{
		Samples: samples,
		index:   make(map[Line]int),
		Reads:   make(map[Line]int),
	}
}

// NewStaticPins creates a FakePins whose limit inputs never change.
func NewStaticPins(open, closed bool) *FakePins {
	return NewFakePins(map[Line][]bool{
		LineOpenLimit:  {open},
		LineCloseLimit: {closed},
	})
}

// Read returns the next scripted level for line.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakePins) Read(line Line) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}

	samples := f.Samples[line]
	if len(samples) == 0 {
		return false, errors.New("no samples configured")
	}

	f.Reads[line]++
	i := f.index[line]
	if i < len(samples)-1 {
		f.index[line] = i + 1
	}
	return samples[i], nil
}

// ReadCount returns how many times line was read.
func (f *FakePins) ReadCount(line Line) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reads[line]
}

// Set replaces the script for line and rewinds it.
func (f *FakePins) Set(line Line, samples ...bool) {
	f.mu.Lock()
	f.Samples[line] = samples
	f.index[line] = 0
	f.mu.Unlock()
}

// Write records the value.
func (f *FakePins) Write(line Line, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Line: line, High: high})
	return nil
}

// Recorded returns a copy of the recorded writes.
func (f *FakePins) Recorded() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.Writes...)
}

// Pulses counts completed high-then-low sequences on the operate line.
func (f *FakePins) Pulses() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	high := false
	for _, w := range f.Writes {
		if w.Line != LineOperate {
			continue
		}
		if w.High {
			high = true
		} else if high {
			high = false
			n++
		}
	}
	return n
}

// Close marks the pins as closed.
func (f *FakePins) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset rewinds every script and clears recorded writes.
func (f *FakePins) Reset() {
	f.mu.Lock()
	f.index = make(map[Line]int)
	f.Reads = make(map[Line]int)
	f.Writes = nil
	f.Closed = false
	f.mu.Unlock()
}
