package ids

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid id")

// Parse converts a path or query token into a positive numeric identifier.
func Parse(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: missing", ErrInvalidID)
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidID, trimmed)
	}
	if id < 1 {
		return 0, fmt.Errorf("%w: must be at least 1", ErrInvalidID)
	}
	return id, nil
}

// ParseList parses repeated or comma separated identifiers ("1,2" or ["1","2"]).
func ParseList(values []string) ([]int64, error) {
	var out []int64
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := Parse(part)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
	}
	return out, nil
}
