package provision

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kubegems.io/modelsrv/pkg/location"
	"kubegems.io/modelsrv/pkg/types"
)

var ErrProvisionFailed = errors.New("required artifacts could not be provisioned")

type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeFailed     Outcome = "failed"
)

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotFound       Reason = "not_found"
	ReasonDownloadFailed Reason = "download_failed"
	ReasonVerifyFailed   Reason = "verify_failed"
	ReasonResolveFailed  Reason = "resolve_failed"
	ReasonCanceled       Reason = "canceled"
)

// State is the lifecycle of an artifact file in the local directory.
type State string

const (
	StateAbsent            State = "absent"
	StateDownloading       State = "downloading"
	StatePresentUnverified State = "present-unverified"
	StatePresentVerified   State = "present-verified"
)

type Result struct {
	Entry    types.Entry       `json:"entry"`
	Outcome  Outcome           `json:"outcome"`
	Reason   Reason            `json:"reason,omitempty"`
	State    State             `json:"state"`
	Err      error             `json:"-"`
	Bytes    int64             `json:"bytes,omitempty"`
	Attempts int               `json:"attempts,omitempty"`
	Location location.Location `json:"location"`
}

// Fatal reports whether the result blocks startup.
func (r Result) Fatal() bool {
	return r.Outcome == OutcomeFailed && !r.Entry.Optional
}

type Report struct {
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
}

// OK is true when every required entry is present. Optional failures do not count.
func (r *Report) OK() bool {
	for _, res := range r.Results {
		if res.Fatal() {
			return false
		}
	}
	return true
}

// Err wraps ErrProvisionFailed with the failed required entries, or returns nil.
func (r *Report) Err() error {
	msgs := []string{}
	for _, res := range r.Results {
		if res.Fatal() {
			msgs = append(msgs, fmt.Sprintf("%s (%s): %v", res.Entry.Name, res.Reason, res.Err))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrProvisionFailed, strings.Join(msgs, "; "))
}

func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

func (r *Report) Lookup(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Entry.Name == name {
			return res, true
		}
	}
	return Result{}, false
}
