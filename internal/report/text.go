package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmater/boostprobe/internal/proto"
)

var rule = strings.Repeat("=", 60)

// Text writes one human-readable block per case.
type Text struct {
	w    io.Writer
	pass lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
}

// NewText returns a console reporter. Colours are dropped when w is not a terminal.
func NewText(w io.Writer) *Text {
	r := lipgloss.NewRenderer(w)
	return &Text{
		w:    w,
		pass: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}),
		fail: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#FF4672"}),
		dim:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}),
	}
}

// Start prints the run header.
func (t *Text) Start(target string, cases []proto.ProbeCase) {
	fmt.Fprintln(t.w, "Boost size limit tests")
	fmt.Fprintf(t.w, "Target: %s\n", target)
	fmt.Fprintf(t.w, "Cases: %d\n", len(cases))
}

// Result prints one block for r: sizes, expectation, status and a pass/fail marker.
func (t *Text) Result(r proto.ProbeResult) {
	fmt.Fprintf(t.w, "\n%s\n", t.dim.Render(rule))
	fmt.Fprintf(t.w, "Testing with message size: %dKB\n", r.Case.SizeKB)
	fmt.Fprintf(t.w, "Total payload size: %.2fKB\n", kb(r.PayloadSize))
	fmt.Fprintf(t.w, "Expected: %s\n", r.Case.Expect)
	fmt.Fprintf(t.w, "%s\n", t.dim.Render(rule))

	if r.StatusCode == 0 {
		fmt.Fprintf(t.w, "Status: none (%s)\n", r.Actual)
		fmt.Fprintln(t.w, t.fail.Render("✗ "+r.Detail))
		return
	}

	fmt.Fprintf(t.w, "Status: %d (%s)\n", r.StatusCode, r.Actual)
	if r.Body != "" {
		fmt.Fprintf(t.w, "Response: %s\n", r.Body)
	}
	switch {
	case r.Matched && r.Actual == proto.OutcomeReject:
		fmt.Fprintln(t.w, t.pass.Render("✓ Rejected as expected"))
	case r.Matched:
		fmt.Fprintln(t.w, t.pass.Render("✓ Accepted as expected"))
	default:
		fmt.Fprintln(t.w, t.fail.Render("✗ Unexpected result: "+r.Detail))
	}
}

// Finish prints the matched/failed tally and the run verdict.
func (t *Text) Finish(s proto.RunSummary) {
	matched, failed := s.Counts()
	status := t.pass.Render("PASS")
	if !s.Passed {
		status = t.fail.Render("FAIL")
	}
	fmt.Fprintf(t.w, "\n%d matched, %d failed: %s\n", matched, failed, status)
}
