package database

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInteger parses a decimal or 0x-prefixed hexadecimal attribute value.
func ParseInteger(s string) (int64, error) {
	var value int64
	var err error

	strVal := strings.ReplaceAll(strings.TrimSpace(s), "X", "x")
	switch {
	case strings.HasPrefix(strVal, "0x"):
		value, err = strconv.ParseInt(strings.TrimPrefix(strVal, "0x"), 16, 64)
	case strings.HasPrefix(strVal, "0b"):
		value, err = strconv.ParseInt(strings.TrimPrefix(strVal, "0b"), 2, 64)
	default:
		value, err = strconv.ParseInt(strVal, 10, 64)
	}

	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidInteger, s)
	}
	return value, nil
}
