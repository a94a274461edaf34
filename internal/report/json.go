package report

import (
	"io"
	"log"

	"github.com/goccy/go-json"

	"github.com/tmater/boostprobe/internal/proto"
)

// JSON writes newline-delimited JSON: one record per result and a final summary.
type JSON struct {
	enc *json.Encoder
}

// NewJSON returns a reporter writing one JSON object per line to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

type startRecord struct {
	Type   string            `json:"type"`
	Target string            `json:"target"`
	Cases  []proto.ProbeCase `json:"cases"`
}

type resultRecord struct {
	Type string `json:"type"`
	proto.ProbeResult
}

type summaryRecord struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Target  string `json:"target"`
	Matched int    `json:"matched"`
	Failed  int    `json:"failed"`
	Passed  bool   `json:"passed"`
}

// Start writes the run header record.
func (j *JSON) Start(target string, cases []proto.ProbeCase) {
	j.write(startRecord{Type: "start", Target: target, Cases: cases})
}

// Result writes one result record.
func (j *JSON) Result(r proto.ProbeResult) {
	j.write(resultRecord{Type: "result", ProbeResult: r})
}

// Finish writes the summary record.
func (j *JSON) Finish(s proto.RunSummary) {
	matched, failed := s.Counts()
	j.write(summaryRecord{
		Type:    "summary",
		RunID:   s.RunID,
		Target:  s.Target,
		Matched: matched,
		Failed:  failed,
		Passed:  s.Passed,
	})
}

func (j *JSON) write(v any) {
	if err := j.enc.Encode(v); err != nil {
		log.Printf("report: failed to encode record: %s", err)
	}
}
