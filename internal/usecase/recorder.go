package usecase

import "time"

// Recorder receives ledger measurements. metrics.Metrics implements it.
type Recorder interface {
	ObserveCommand(command, outcome string, duration time.Duration)
	PublishFailed(eventType string)
	ProjectionApplied(eventType string)
	ProjectionFailed(eventType string)
	Discrepancies(count int)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) ObserveCommand(string, string, time.Duration) {}
func (NopRecorder) PublishFailed(string)                         {}
func (NopRecorder) ProjectionApplied(string)                     {}
func (NopRecorder) ProjectionFailed(string)                      {}
func (NopRecorder) Discrepancies(int)                            {}

// Command outcomes
const (
	OutcomeSuccess           = "success"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

func commandOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isInsufficientFunds(err):
		return OutcomeInsufficientFunds
	case isValidationError(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
