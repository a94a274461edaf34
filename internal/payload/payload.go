// Package payload builds boost request bodies of a controlled size.
package payload

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tmater/boostprobe/internal/proto"
)

// TimestampLayout renders UTC instants at a fixed width so two payloads of the
// same nominal size always serialize to the same number of bytes.
const TimestampLayout = "2006-01-02T15:04:05.000000+00:00"

// Builder creates BoostRequests. Now defaults to time.Now.
type Builder struct {
	Now func() time.Time
}

// Build returns a request whose message is exactly sizeKB*1024 bytes long.
// Non-positive sizes produce an empty message.
func (b Builder) Build(sizeKB int) proto.BoostRequest {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	n := sizeKB * 1024
	if n < 0 {
		n = 0
	}
	return proto.BoostRequest{
		Action:         proto.ActionBoost,
		Split:          0.5,
		ValueMsat:      1000,
		ValueMsatTotal: 2000,
		Timestamp:      now().UTC().Format(TimestampLayout),
		Message:        strings.Repeat("a", n),
	}
}

// Build uses the default Builder.
func Build(sizeKB int) proto.BoostRequest {
	return Builder{}.Build(sizeKB)
}

// Encode serializes req exactly as it is sent on the wire.
func Encode(req proto.BoostRequest) ([]byte, error) {
	return json.Marshal(req)
}
