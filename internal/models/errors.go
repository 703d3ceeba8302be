package models

import "errors"

// Phase names the pipeline stage an error came from, so the user can
// tell whether to re-upload the document or just re-ask the question.
type Phase string

const (
	PhaseConfig   Phase = "config"
	PhaseIngest   Phase = "ingest"
	PhaseEmbed    Phase = "embed"
	PhaseRetrieve Phase = "retrieve"
	PhaseGenerate Phase = "generate"
)

// PhaseError wraps an error with the phase that produced it.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string { return string(e.Phase) + ": " + e.Err.Error() }

func (e *PhaseError) Unwrap() error { return e.Err }

func phaseErr(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}

func ConfigError(err error) error     { return phaseErr(PhaseConfig, err) }
func IngestError(err error) error     { return phaseErr(PhaseIngest, err) }
func EmbeddingError(err error) error  { return phaseErr(PhaseEmbed, err) }
func RetrievalError(err error) error  { return phaseErr(PhaseRetrieve, err) }
func GenerationError(err error) error { return phaseErr(PhaseGenerate, err) }

// IsPhase reports whether err belongs to the given pipeline phase.
func IsPhase(err error, phase Phase) bool {
	var pe *PhaseError
	return errors.As(err, &pe) && pe.Phase == phase
}
