package puzzle

import (
	"strconv"
	"strings"
)

// MatchString compares typed input against the expected word, ignoring case
// and surrounding whitespace.
func MatchString(expected, input string) Verdict {
	return verdictOf(strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(expected)))
}

// MatchInt compares typed input against the expected number. Input that is
// not a plain integer is a mismatch.
func MatchInt(expected int, input string) Verdict {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return Mismatch
	}
	return verdictOf(n == expected)
}
