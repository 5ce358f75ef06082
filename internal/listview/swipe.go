package listview

import "time"

const (
	// OpenOffset is where an open row rests, revealing the edit and delete actions.
	OpenOffset = -120.0
	// OpenThreshold is how far a row must be dragged for the release to open it.
	OpenThreshold = -60.0
	// SettleDuration is the snap animation after release.
	SettleDuration = 200 * time.Millisecond
)

type SwipeState int

const (
	Closed SwipeState = iota
	Dragging
	Opening
	Open
	Closing
)

func (s SwipeState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// Swipe is the gesture state of one row. The zero value is a closed row. Rows do not know
// about each other; opening one never closes another.
type Swipe struct {
	state     SwipeState
	base      float64
	offset    float64
	from      float64
	to        float64
	startedAt time.Time
}

func (s *Swipe) State() SwipeState { return s.state }

// IsOpen is true while the actions are revealed or being revealed.
func (s *Swipe) IsOpen() bool { return s.state == Open || s.state == Opening }

// Begin starts a drag from wherever the row is at now, including mid-animation.
func (s *Swipe) Begin(now time.Time) {
	s.base = s.Offset(now)
	s.offset = s.base
	s.state = Dragging
}

// Drag moves the row by dx relative to where the drag began. Offsets stay in [OpenOffset, 0].
func (s *Swipe) Drag(dx float64) {
	if s.state != Dragging {
		return
	}
	s.offset = clamp(s.base + dx)
}

// Release ends the drag. Past the threshold the row settles open, otherwise closed.
func (s *Swipe) Release(now time.Time) SwipeState {
	if s.state != Dragging {
		return s.state
	}
	if s.offset < OpenThreshold {
		s.settle(now, Opening, OpenOffset)
	} else {
		s.settle(now, Closing, 0)
	}
	return s.state
}

// Close animates an open row shut, e.g. after one of its actions ran.
func (s *Swipe) Close(now time.Time) {
	if s.state == Closed || s.state == Closing {
		return
	}
	s.settle(now, Closing, 0)
}

// Advance finishes a settle animation whose duration has elapsed.
func (s *Swipe) Advance(now time.Time) SwipeState {
	if (s.state == Opening || s.state == Closing) && now.Sub(s.startedAt) >= SettleDuration {
		if s.state == Opening {
			s.state = Open
		} else {
			s.state = Closed
		}
	}
	return s.state
}

// Offset is the horizontal position at now. It only depends on the state, the settle start
// and end points and the elapsed time.
func (s *Swipe) Offset(now time.Time) float64 {
	switch s.state {
	case Open:
		return OpenOffset
	case Dragging:
		return s.offset
	case Opening, Closing:
		elapsed := now.Sub(s.startedAt)
		if elapsed <= 0 {
			return s.from
		}
		if elapsed >= SettleDuration {
			return s.to
		}
		progress := float64(elapsed) / float64(SettleDuration)
		return s.from + (s.to-s.from)*progress
	default:
		return 0
	}
}

func (s *Swipe) settle(now time.Time, state SwipeState, to float64) {
	s.from = s.Offset(now)
	s.to = to
	s.startedAt = now
	s.state = state
}

func clamp(v float64) float64 {
	if v > 0 {
		return 0
	}
	if v < OpenOffset {
		return OpenOffset
	}
	return v
}
