package constants

// OutcomeStatus is the canonical status of a single candidate attempt.
type OutcomeStatus string

// Stable values (these exact strings appear in reports and JSON logs).
const (
	OutcomeSucceeded   OutcomeStatus = "SUCCEEDED"   // candidate returned a value
	OutcomeFailed      OutcomeStatus = "FAILED"      // candidate ran and errored on this input
	OutcomeUnavailable OutcomeStatus = "UNAVAILABLE" // backend missing (binary, library)
)
