package enums

import "fmt"

// SubmissionStatus is the checkout submission state machine. A session
// starts idle, enters submitting while an order attempt is in flight, and
// lands on succeeded or failed. Only idle and failed accept a new attempt.
type SubmissionStatus string

const (
	SubmissionStatusIdle       SubmissionStatus = "idle"
	SubmissionStatusSubmitting SubmissionStatus = "submitting"
	SubmissionStatusSucceeded  SubmissionStatus = "succeeded"
	SubmissionStatusFailed     SubmissionStatus = "failed"
)

var validSubmissionStatuses = []SubmissionStatus{
	SubmissionStatusIdle,
	SubmissionStatusSubmitting,
	SubmissionStatusSucceeded,
	SubmissionStatusFailed,
}

// String implements fmt.Stringer.
func (s SubmissionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubmissionStatus.
func (s SubmissionStatus) IsValid() bool {
	for _, candidate := range validSubmissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanSubmit reports whether a new submission attempt may begin from this
// state.
func (s SubmissionStatus) CanSubmit() bool {
	return s == SubmissionStatusIdle || s == SubmissionStatusFailed || s == ""
}

// ParseSubmissionStatus converts raw input into a SubmissionStatus.
func ParseSubmissionStatus(value string) (SubmissionStatus, error) {
	for _, candidate := range validSubmissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid submission status %q", value)
}
