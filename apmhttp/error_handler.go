package apmhttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrInvalidStatusRange is returned by ParseStatusRanges for a malformed range.
var ErrInvalidStatusRange = errors.New("apmhttp: invalid status range")

// ErrorHandler reports whether the response should mark the span as an error.
type ErrorHandler func(resp *http.Response) bool

// DefaultErrorHandler flags server errors, the 5xx statuses.
func DefaultErrorHandler(resp *http.Response) bool {
	return resp.StatusCode >= 500 && resp.StatusCode < 600
}

// StatusRange is the range of the status codes, both ends inclusive.
type StatusRange struct {
	Min, Max int
}

// Contains reports whether code is in the range.
func (r StatusRange) Contains(code int) bool {
	return r.Min <= code && code <= r.Max
}

func (r StatusRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
}

// StatusRangeErrorHandler returns an ErrorHandler that flags the responses
// whose status code is in any of ranges.
func StatusRangeErrorHandler(ranges ...StatusRange) ErrorHandler {
	ranges = append([]StatusRange(nil), ranges...)
	return func(resp *http.Response) bool {
		for _, r := range ranges {
			if r.Contains(resp.StatusCode) {
				return true
			}
		}
		return false
	}
}

// ParseStatusRanges parses a comma separated list of status codes and ranges,
// e.g. "404,500-599".
func ParseStatusRanges(s string) ([]StatusRange, error) {
	var ranges []StatusRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parseStatusRange(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidStatusRange, s)
	}
	return ranges, nil
}

func parseStatusRange(s string) (StatusRange, error) {
	lo, hi, found := strings.Cut(s, "-")
	lower, err := parseStatus(lo)
	if err != nil {
		return StatusRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidStatusRange, s, err)
	}
	upper := lower
	if found {
		upper, err = parseStatus(hi)
		if err != nil {
			return StatusRange{}, fmt.Errorf("%w: %q: %w", ErrInvalidStatusRange, s, err)
		}
	}
	if lower > upper {
		return StatusRange{}, fmt.Errorf("%w: %q: the lower bound exceeds the upper bound", ErrInvalidStatusRange, s)
	}
	return StatusRange{Min: lower, Max: upper}, nil
}

func parseStatus(s string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if code < 100 || code > 999 {
		return 0, fmt.Errorf("status %d is out of range", code)
	}
	return code, nil
}
