package node

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule produces the sequence of duty cycles a node drives.
type Schedule interface {
	// Next returns the duty to apply and advances.
	Next() int
	// Period is how long each duty is held, 0 to advance every cycle.
	Period() time.Duration
	String() string
}

// Triangle sweeps between 0 and 100 in steps of one per cycle, reversing
// direction when it reaches either end.
type Triangle struct {
	Value int
	Dir   int
}

// Next implements Schedule.
func (s *Triangle) Next() int {
	duty := s.Value
	if s.Dir == 0 {
		s.Dir = 1
	}
	s.Value += s.Dir
	if s.Value >= 100 {
		s.Value, s.Dir = 100, -1
	} else if s.Value <= 0 {
		s.Value, s.Dir = 0, 1
	}
	return duty
}

// Period implements Schedule.
func (s *Triangle) Period() time.Duration { return 0 }

func (s *Triangle) String() string {
	return fmt.Sprintf("triangle:%d:%d", s.Value, s.Dir)
}

// List cycles through fixed values, holding each for Dwell.
type List struct {
	Values []int
	Dwell  time.Duration

	index int
}

// Next implements Schedule.
func (s *List) Next() int {
	duty := s.Values[s.index]
	s.index = (s.index + 1) % len(s.Values)
	return duty
}

// Period implements Schedule.
func (s *List) Period() time.Duration { return s.Dwell }

func (s *List) String() string {
	vals := make([]string, len(s.Values))
	for n, v := range s.Values {
		vals[n] = strconv.Itoa(v)
	}
	return fmt.Sprintf("list:%s:%s", s.Dwell, strings.Join(vals, ","))
}

// Fixed holds one duty.
type Fixed int

// Next implements Schedule.
func (s Fixed) Next() int { return int(s) }

// Period implements Schedule.
func (s Fixed) Period() time.Duration { return 0 }

func (s Fixed) String() string {
	return fmt.Sprintf("fixed:%d", int(s))
}

// ParseSchedule parses one of
//
//	triangle:START:DIR   e.g. triangle:50:-1
//	list:DWELL:V1,V2,... e.g. list:3s:0,10,25,50,75,90,100
//	fixed:N
func ParseSchedule(s string) (Schedule, error) {
	parts := strings.SplitN(s, ":", 3)
	fail := func(format string, args ...interface{}) (Schedule, error) {
		return nil, fmt.Errorf("invalid schedule %q: "+format, append([]interface{}{s}, args...)...)
	}
	switch parts[0] {
	case "triangle":
		if len(parts) != 3 {
			return fail("want triangle:START:DIR")
		}
		start, err := parseDuty(parts[1])
		if err != nil {
			return fail("%v", err)
		}
		dir, err := strconv.Atoi(parts[2])
		if err != nil || (dir != 1 && dir != -1) {
			return fail("direction must be 1 or -1")
		}
		return &Triangle{Value: start, Dir: dir}, nil
	case "list":
		if len(parts) != 3 {
			return fail("want list:DWELL:V1,V2,...")
		}
		dwell, err := time.ParseDuration(parts[1])
		if err != nil || dwell <= 0 {
			return fail("invalid dwell %q", parts[1])
		}
		l := &List{Dwell: dwell}
		for _, item := range strings.Split(parts[2], ",") {
			v, err := parseDuty(strings.TrimSpace(item))
			if err != nil {
				return fail("%v", err)
			}
			l.Values = append(l.Values, v)
		}
		return l, nil
	case "fixed":
		if len(parts) != 2 {
			return fail("want fixed:N")
		}
		v, err := parseDuty(parts[1])
		if err != nil {
			return fail("%v", err)
		}
		return Fixed(v), nil
	default:
		return fail("unknown kind %q", parts[0])
	}
}

func parseDuty(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duty %q", s)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("duty %d out of range", v)
	}
	return v, nil
}
