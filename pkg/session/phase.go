package session

// Phase tracks the interpreter lifecycle for the active form.
type Phase string

const (
	// PhaseIdle means no form has been selected yet.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingInput means a form is active and accepting answers.
	PhaseAwaitingInput Phase = "awaiting_input"
	// PhaseSubmitting means a submission is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseSubmitted means the last submission succeeded.
	PhaseSubmitted Phase = "submitted"
)
