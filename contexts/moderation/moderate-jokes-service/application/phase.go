package application

import "errors"

// Phase names the outbound call that was in flight when an approval failed.
type Phase string

const (
	PhaseUpstreamApproval   Phase = "upstream_approval"
	PhaseDownstreamDelivery Phase = "downstream_delivery"
)

// PhaseError tags a failure with the approval phase it originated from.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return string(e.Phase) + ": " + e.Err.Error()
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func tagPhase(phase Phase, err error) error {
	if err == nil || phase == "" {
		return err
	}
	return &PhaseError{Phase: phase, Err: err}
}

// PhaseOf reports the phase an error was tagged with, if any.
func PhaseOf(err error) (Phase, bool) {
	var phaseErr *PhaseError
	if errors.As(err, &phaseErr) {
		return phaseErr.Phase, true
	}
	return "", false
}
