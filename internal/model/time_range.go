package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range, expected HH:MM[:SS][-HH:MM[:SS]|-*]")

// Clock время суток в секундах от полуночи
type Clock int

const EndOfDay Clock = 23*3600 + 59*60 + 59

// ClockOf возвращает время суток момента t
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock(h*3600 + m*60 + s)
}

// ParseClock разбирает HH:MM или HH:MM:SS
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)%3600/60, int(c)%60)
}

// TimeRange окно времени суток. Endless означает "от Start до конца дня".
type TimeRange struct {
	Start   Clock
	End     Clock
	Endless bool
}

// DefaultTimeRange весь день с полуночи
func DefaultTimeRange() TimeRange {
	return TimeRange{Start: 0, Endless: true}
}

// ParseTimeRange разбирает "start", "start-*" или "start-end"
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeRange{}, ErrInvalidTimeRange
	}

	startStr, endStr, bounded := strings.Cut(s, "-")
	start, err := ParseClock(startStr)
	if err != nil {
		return TimeRange{}, err
	}

	if !bounded || strings.TrimSpace(endStr) == "*" {
		return TimeRange{Start: start, Endless: true}, nil
	}

	end, err := ParseClock(endStr)
	if err != nil {
		return TimeRange{}, err
	}
	if end < start {
		return TimeRange{}, fmt.Errorf("%w: end time %s is earlier than start time %s", ErrInvalidTimeRange, end, start)
	}

	return TimeRange{Start: start, End: end}, nil
}

// Contains проверяет, попадает ли время суток t в окно
func (r TimeRange) Contains(t time.Time) bool {
	c := ClockOf(t)
	if r.Endless {
		return r.Start <= c
	}
	return r.Start <= c && c <= r.End
}

func (r TimeRange) String() string {
	if r.Endless {
		return r.Start.String() + "-*"
	}
	return r.Start.String() + "-" + r.End.String()
}
