package proto

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is how a probe's response was classified.
type Outcome string

const (
	OutcomeAccept        Outcome = "ACCEPT"
	OutcomeReject        Outcome = "REJECT"
	OutcomeIndeterminate Outcome = "INDETERMINATE"
)

// ParseOutcome accepts the expectation spellings used in config files and flags.
// Only ACCEPT and REJECT are valid expectations.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPT", "PASS":
		return OutcomeAccept, nil
	case "REJECT", "FAIL":
		return OutcomeReject, nil
	}
	return "", fmt.Errorf("unknown outcome %q (want accept or reject)", s)
}

// ProbeCase is one fixture: send a message of SizeKB kilobytes and expect Expect.
type ProbeCase struct {
	Name   string  `json:"name,omitempty" yaml:"name"`
	SizeKB int     `json:"size_kb" yaml:"size_kb"`
	Expect Outcome `json:"expect" yaml:"expect"`
}

// Label is the case name, or a name derived from its size when none was given.
func (c ProbeCase) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%dkb", c.SizeKB)
}

// ProbeResult is what the prober records after running a ProbeCase.
type ProbeResult struct {
	Case        ProbeCase     `json:"case"`
	PayloadSize int           `json:"payload_bytes"` // serialized body length, not the nominal size
	StatusCode  int           `json:"status_code"`   // 0 when the request never got a response
	Actual      Outcome       `json:"actual"`
	Matched     bool          `json:"matched"`
	Detail      string        `json:"detail,omitempty"`
	Body        string        `json:"body,omitempty"` // first bytes of the response body
	Latency     time.Duration `json:"latency_ns"`
	Timestamp   time.Time     `json:"timestamp"`
}

// RunSummary is the ordered set of results from one run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Target     string        `json:"target"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []ProbeResult `json:"results"`
	Passed     bool          `json:"passed"`
}

// Counts returns how many results matched and how many did not.
func (s RunSummary) Counts() (matched, failed int) {
	for _, r := range s.Results {
		if r.Matched {
			matched++
		} else {
			failed++
		}
	}
	return matched, failed
}
