package check

import (
	"net/http"

	"github.com/tmater/boostprobe/internal/proto"
)

// Classify maps a probe's response to an Outcome. A non-nil err means the
// request never produced a response; status is ignored in that case.
func Classify(status int, err error) proto.Outcome {
	switch {
	case err != nil:
		return proto.OutcomeIndeterminate
	case status == http.StatusCreated:
		return proto.OutcomeAccept
	case status >= http.StatusBadRequest:
		return proto.OutcomeReject
	default:
		return proto.OutcomeIndeterminate
	}
}

// Matches reports whether actual satisfies expected. INDETERMINATE never does.
func Matches(expected, actual proto.Outcome) bool {
	if actual == proto.OutcomeIndeterminate {
		return false
	}
	return actual == expected
}
