package upload

// State is the per-file upload state machine:
// pending -> uploading -> uploaded -> confirmed, with failed reachable from
// any non-terminal state. "uploaded" is terminal only when the confirm call
// fails after a durable storage write — the file bytes exist remotely but
// the photo record is still pending server-side.
type State string

const (
	StatePending   State = "pending"
	StateUploading State = "uploading"
	StateUploaded  State = "uploaded"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Outcome is the final state of one file in a batch. Err is set for
// uploaded-but-unconfirmed and failed files; a failed confirm or storage
// write is never swallowed.
type Outcome struct {
	Path             string
	OriginalFilename string
	PhotoID          string
	State            State
	Err              error
}

// Result aggregates a batch. Partial failure is a structured result, not
// an error: callers inspect Outcomes and retry only the failed subset.
type Result struct {
	BatchKey  string
	GalleryID string
	Outcomes  []Outcome
}

// Confirmed returns the number of fully confirmed files.
func (r *Result) Confirmed() int {
	n := 0

	for _, o := range r.Outcomes {
		if o.State == StateConfirmed {
			n++
		}
	}

	return n
}

// Failed returns the outcomes that did not reach confirmed state.
func (r *Result) Failed() []Outcome {
	var failed []Outcome

	for _, o := range r.Outcomes {
		if o.State != StateConfirmed {
			failed = append(failed, o)
		}
	}

	return failed
}
