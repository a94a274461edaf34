// Package report renders probe results for people and machines.
package report

import (
	"fmt"
	"io"

	"github.com/tmater/boostprobe/internal/proto"
)

// Reporter receives results in run order. Implementations write as they go so
// output keeps pace with the probes.
type Reporter interface {
	Start(target string, cases []proto.ProbeCase)
	Result(r proto.ProbeResult)
	Finish(s proto.RunSummary)
}

// Formats lists the names accepted by New.
var Formats = []string{"text", "json", "log"}

// New returns the reporter for format writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "", "text":
		return NewText(w), nil
	case "json":
		return NewJSON(w), nil
	case "log":
		return NewLog(w), nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// MaskKey hides all but the first two characters of an API key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:2] + "****"
}

func kb(n int) float64 {
	return float64(n) / 1024
}
