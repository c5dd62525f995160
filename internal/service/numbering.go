package service

import (
	"fmt"
	"strconv"
	"strings"
)

const orderNumberPrefix = "OT"

func formatOrderNumber(year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%05d", orderNumberPrefix, year, sequence)
}

// nextOrderNumber returns the number following last within year. An empty
// last starts the year's sequence at 1.
func nextOrderNumber(last string, year int) (string, error) {
	if last == "" {
		return formatOrderNumber(year, 1), nil
	}

	parts := strings.Split(last, "-")
	if len(parts) != 3 || parts[0] != orderNumberPrefix {
		return "", fmt.Errorf("malformed work order number %q", last)
	}
	lastYear, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("malformed work order number %q: %w", last, err)
	}
	if lastYear != year {
		return formatOrderNumber(year, 1), nil
	}
	sequence, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed work order number %q: %w", last, err)
	}
	return formatOrderNumber(year, sequence+1), nil
}
