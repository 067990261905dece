package gpio

import (
	"errors"
	"testing"
)

func TestFakePinsRead(t *testing.T) {
	f := NewFakePins(map[Line][]bool{
		LineOpenLimit:  {true, false, true},
		LineCloseLimit: {false},
	})

	want := []bool{true, false, true, true}
	for i, w := range want {
		got, err := f.Read(LineOpenLimit)
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}

	// Lines advance independently
	got, err := f.Read(LineCloseLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("close-limit: expected false")
	}

	if f.Reads[LineOpenLimit] != 4 {
		t.Errorf("open-limit reads: got %d, want 4", f.Reads[LineOpenLimit])
	}
}

func TestFakePinsNoSamples(t *testing.T) {
	f := NewFakePins(nil)

	_, err := f.Read(LineOpenLimit)
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakePinsReadError(t *testing.T) {
	f := NewStaticPins(true, false)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read(LineOpenLimit)
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakePinsPulses(t *testing.T) {
	f := NewStaticPins(false, false)

	f.Write(LineOperate, true)
	f.Write(LineOperate, false)
	f.Write(LineOperate, false) // low without a preceding high is not a pulse
	f.Write(LineOperate, true)

	if got := f.Pulses(); got != 1 {
		t.Errorf("pulses: got %d, want 1", got)
	}

	f.Write(LineOperate, false)
	if got := f.Pulses(); got != 2 {
		t.Errorf("pulses: got %d, want 2", got)
	}
}

func TestFakePinsWriteError(t *testing.T) {
	f := NewStaticPins(false, false)
	f.WriteError = errors.New("relay stuck")

	if err := f.Write(LineOperate, true); err == nil {
		t.Error("expected write error")
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed writes should not be recorded, got %d", len(f.Writes))
	}
}

func TestFakePinsSetAndReset(t *testing.T) {
	f := NewStaticPins(true, false)

	f.Read(LineOpenLimit)
	f.Set(LineOpenLimit, false, true)

	got, _ := f.Read(LineOpenLimit)
	if got {
		t.Error("after Set: expected first scripted value false")
	}

	f.Write(LineOperate, true)
	f.Close()
	f.Reset()

	if f.Closed {
		t.Error("should not be closed after Reset()")
	}
	if len(f.Writes) != 0 {
		t.Errorf("writes after Reset: got %d, want 0", len(f.Writes))
	}
	got, _ = f.Read(LineOpenLimit)
	if got {
		t.Error("after Reset: expected script rewound to false")
	}
}

func TestLineString(t *testing.T) {
	tests := []struct {
		line Line
		want string
	}{
		{LineOpenLimit, "open-limit"},
		{LineCloseLimit, "close-limit"},
		{LineOperate, "operate"},
		{Line(9), "line(9)"},
	}
	for _, tt := range tests {
		if got := tt.line.String(); got != tt.want {
			t.Errorf("Line(%d).String(): got %q, want %q", int(tt.line), got, tt.want)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("bogus", Config{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpenNoneBackend(t *testing.T) {
	p, err := Open(BackendNone, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	high, err := p.Read(LineOpenLimit)
	if err != nil || high {
		t.Errorf("noop read: got (%v, %v), want (false, nil)", high, err)
	}
	if err := p.Write(LineOperate, true); err != nil {
		t.Errorf("noop write: %v", err)
	}
}
