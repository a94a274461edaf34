package verdict

import (
	"fmt"

	"github.com/tmater/boostprobe/internal/proto"
)

// Policy decides how per-case matches roll up into a run verdict.
type Policy string

const (
	// Strict fails the run if any case did not match.
	Strict Policy = "strict"
	// Report always passes; failures are only printed.
	Report Policy = "report"
)

// ParsePolicy returns the named policy. An empty name means Strict.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case "", Strict:
		return Strict, nil
	case Report:
		return Report, nil
	}
	return "", fmt.Errorf("unknown policy %q", name)
}

// Evaluate returns true if the run passes under policy. Under Strict an empty
// result set fails, since nothing was verified.
func Evaluate(results []proto.ProbeResult, policy Policy) bool {
	if policy == Report {
		return true
	}
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Matched {
			return false
		}
	}
	return true
}

// Failed returns the labels of the cases that did not match, in run order.
func Failed(results []proto.ProbeResult) []string {
	var labels []string
	for _, r := range results {
		if !r.Matched {
			labels = append(labels, r.Case.Label())
		}
	}
	return labels
}
