// Package proposal generates and validates figure proposals.
package proposal

import "fmt"

// Rule identifies which proposal check failed.
type Rule string

// Rules in the order they are checked.
const (
	RuleStructure     Rule = "structure"
	RuleNameCollision Rule = "name-collision"
	RuleTitleFormat   Rule = "title-format"
	RuleTitleContent  Rule = "title-content"
)

// Violation describes the first rule a proposal failed.
type Violation struct {
	Rule    Rule
	Field   string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s violation on %s: %s", v.Rule, v.Field, v.Message)
}

// ExhaustedError is returned when no attempt produced a valid proposal.
// Reason is the failure of the final attempt.
type ExhaustedError struct {
	Attempts int
	Reason   string
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("proposal generation exhausted after %d attempts: %s", e.Attempts, e.Reason)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// AttemptError records why a single attempt was rejected.
type AttemptError struct {
	Attempt int
	Stage   string
	Cause   error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("attempt %d: %s: %v", e.Attempt, e.Stage, e.Cause)
}

func (e *AttemptError) Unwrap() error {
	return e.Cause
}
