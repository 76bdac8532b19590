package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Documented defaults applied when a spot carries no usable hours or price.
const (
	DefaultOpeningTime = "09:00"
	DefaultClosingTime = "17:00"
	DefaultPrice       = 1000
)

// ErrInvalidTimeFormat reports a malformed 24-hour clock value. Callers
// recover locally with the documented defaults and never surface it.
var ErrInvalidTimeFormat = errors.New("invalid 24-hour time format")

// ParseClock converts an "HH:MM" 24-hour clock string to minutes since
// midnight.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return hour*60 + minute, nil
}

// IsOpenNow reports whether now falls inside the [open, close] window.
// An interval whose close precedes its open wraps past midnight:
// 23:00–02:00 is open at 23:30 and at 01:00, closed at 03:00.
// Pure and deterministic given now.
func IsOpenNow(openTime, closeTime string, now time.Time) (bool, error) {
	openMin, err := ParseClock(openTime)
	if err != nil {
		return false, err
	}
	closeMin, err := ParseClock(closeTime)
	if err != nil {
		return false, err
	}

	nowMin := now.Hour()*60 + now.Minute()

	if closeMin < openMin {
		return nowMin >= openMin || nowMin <= closeMin, nil
	}
	return nowMin >= openMin && nowMin <= closeMin, nil
}

// IsOpenNowOrDefault evaluates the window, substituting the documented
// defaults for missing or malformed bounds so the failure never reaches
// the caller's caller.
func IsOpenNowOrDefault(openTime, closeTime string, now time.Time) bool {
	if _, err := ParseClock(openTime); err != nil {
		openTime = DefaultOpeningTime
	}
	if _, err := ParseClock(closeTime); err != nil {
		closeTime = DefaultClosingTime
	}
	open, err := IsOpenNow(openTime, closeTime, now)
	if err != nil {
		return false
	}
	return open
}
