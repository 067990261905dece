package door

import "time"

// Reference motion detection parameters.
const (
	DefaultFlashWindow = 1200 * time.Millisecond
	DefaultFlashPoll   = time.Millisecond
)

// Classifier derives the door state from the two limit switches.
type Classifier struct {
	sampler *Sampler
	clock   Clock
	window  time.Duration
	poll    time.Duration
}

// NewClassifier creates a Classifier. window is how long the motion check
// watches raw reads; poll is the delay between raw reads.
func NewClassifier(sampler *Sampler, clock Clock, window, poll time.Duration) *Classifier {
	return &Classifier{
		sampler: sampler,
		clock:   clock,
		window:  window,
		poll:    poll,
	}
}

// Resting classifies from one paired debounce pass. A door at neither limit
// is reported as Transitional without running the motion check.
func (c *Classifier) Resting() (Classification, error) {
	open, closed, err := c.sampler.Pair()
	if err != nil {
		return Classification{}, err
	}
	return Classification{
		OpenLimit:  open,
		CloseLimit: closed,
		State:      restingState(open, closed),
	}, nil
}

// Classify classifies the door, running the motion check when the door is at
// neither limit. Worst case it blocks for four debounce passes plus the
// flashing window.
func (c *Classifier) Classify() (Classification, error) {
	cl, err := c.Resting()
	if err != nil {
		return Classification{}, err
	}
	if cl.State != StateTransitional {
		return cl, nil
	}

	flashing, err := c.flashing()
	if err != nil {
		return Classification{}, err
	}
	if flashing {
		cl.State = StateFlashing
	}
	return cl, nil
}

func restingState(open, closed Level) State {
	switch {
	case open == High && closed == Low:
		return StateOpen
	case open == Low && closed == High:
		return StateClosed
	}
	return StateTransitional
}

// flashing re-reads both pins and, if they agree, watches raw reads for any
// departure from that level during the window.
func (c *Classifier) flashing() (bool, error) {
	open, closed, err := c.sampler.Pair()
	if err != nil {
		return false, err
	}
	if open != closed {
		return false, nil
	}

	initial := open
	start := c.clock.Now()
	for c.clock.Now().Sub(start) < c.window {
		o, err := c.sampler.Raw(OpenLimit)
		if err != nil {
			return false, err
		}
		cl, err := c.sampler.Raw(CloseLimit)
		if err != nil {
			return false, err
		}
		if o != initial || cl != initial {
			return true, nil
		}
		c.clock.Sleep(c.poll)
	}
	return false, nil
}
