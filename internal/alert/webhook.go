package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tmater/boostprobe/internal/proto"
	"github.com/tmater/boostprobe/internal/verdict"
)

const webhookTimeout = 10 * time.Second

// RunAlert is the JSON body sent to a webhook URL when a run fails.
type RunAlert struct {
	RunID       string   `json:"run_id"`
	Target      string   `json:"target"`
	Status      string   `json:"status"` // always "failed"
	CasesFailed int      `json:"cases_failed"`
	CasesTotal  int      `json:"cases_total"`
	FailedCases []string `json:"failed_cases"`
}

// FromSummary builds the alert payload for s.
func FromSummary(s proto.RunSummary) RunAlert {
	_, failed := s.Counts()
	return RunAlert{
		RunID:       s.RunID,
		Target:      s.Target,
		Status:      "failed",
		CasesFailed: failed,
		CasesTotal:  len(s.Results),
		FailedCases: verdict.Failed(s.Results),
	}
}

// Fire POSTs payload as JSON to url. Returns an error if the request fails or
// the server responds with a non-2xx status.
func Fire(ctx context.Context, url string, payload RunAlert) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
