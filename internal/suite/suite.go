// Package suite runs a list of probe cases one after another.
package suite

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tmater/boostprobe/internal/proto"
	"github.com/tmater/boostprobe/internal/report"
	"github.com/tmater/boostprobe/internal/verdict"
)

// Prober runs a single case. *check.Prober satisfies it.
type Prober interface {
	Run(ctx context.Context, c proto.ProbeCase) proto.ProbeResult
}

// Run executes cases in order, handing each result to rep before starting the
// next. A failed case never stops the run; a cancelled ctx does, and the
// cases not yet started are left out of the summary.
func Run(ctx context.Context, p Prober, target string, cases []proto.ProbeCase, rep report.Reporter, policy verdict.Policy) proto.RunSummary {
	s := proto.RunSummary{
		RunID:     uuid.NewString(),
		Target:    target,
		StartedAt: time.Now().UTC(),
		Results:   make([]proto.ProbeResult, 0, len(cases)),
	}
	log.Printf("suite: run started run_id=%s target=%s cases=%d", s.RunID, target, len(cases))
	rep.Start(target, cases)

	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			log.Printf("suite: run cancelled run_id=%s after %d/%d cases: %s", s.RunID, i, len(cases), err)
			break
		}
		r := p.Run(ctx, c)
		s.Results = append(s.Results, r)
		rep.Result(r)
	}

	s.FinishedAt = time.Now().UTC()
	s.Passed = verdict.Evaluate(s.Results, policy)
	matched, failed := s.Counts()
	log.Printf("suite: run finished run_id=%s matched=%d failed=%d passed=%v", s.RunID, matched, failed, s.Passed)
	rep.Finish(s)
	return s
}
