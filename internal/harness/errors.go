package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solenne/chartest/internal/evaluator"
	"github.com/solenne/chartest/internal/statechart"
)

// TestError is an assertion failure raised by a tester's own logic during
// a relay, enriched with the diagnostic state of both executions. The
// fields stay machine-inspectable; Error renders the human-readable
// message at the boundary.
type TestError struct {
	// Subject is the name of the statechart under test.
	Subject string

	// Tester is the name of the failing tester statechart.
	Tester string

	// Cause is the original assertion failure.
	Cause error

	// TesterConfiguration is the tester's active states at failure time.
	TesterConfiguration []string

	// SubjectConfiguration is the subject's active states at failure time.
	SubjectConfiguration []string

	// Step is the originating step, nil for a start/stop relay.
	Step *statechart.Step
}

// Error implements the error interface.
func (e *TestError) Error() string {
	return fmt.Sprintf(
		"an assertion failed while testing %q\n"+
			"tester statechart %q returned: %v\n"+
			"tester configuration: [%s]\n"+
			"subject configuration: [%s]\n"+
			"step: %s",
		e.Subject, e.Tester, e.Cause,
		strings.Join(e.TesterConfiguration, ", "),
		strings.Join(e.SubjectConfiguration, ", "),
		e.Step,
	)
}

// Unwrap exposes the original assertion failure to errors.As/Is.
func (e *TestError) Unwrap() error {
	return e.Cause
}

// FinalityError reports a tester still running after the subject has
// terminated. It is a specialization of an assertion failure: correctness
// requires finality to hold at termination.
type FinalityError struct {
	// Tester is the name of the stuck tester statechart.
	Tester string

	// Configuration is the tester's active states at stop time.
	Configuration []string
}

// Error implements the error interface.
func (e *FinalityError) Error() string {
	return fmt.Sprintf("tester %q is not in a final configuration: [%s]",
		e.Tester, strings.Join(e.Configuration, ", "))
}

// IsAssertionFailure reports whether err is (or wraps) a tester assertion
// failure, including finality violations.
func IsAssertionFailure(err error) bool {
	var te *TestError
	if errors.As(err, &te) {
		return true
	}
	var fe *FinalityError
	if errors.As(err, &fe) {
		return true
	}
	var ae *evaluator.AssertionError
	return errors.As(err, &ae)
}

// IsFinalityViolation reports whether err is (or wraps) a finality
// violation raised at stop time.
func IsFinalityViolation(err error) bool {
	var fe *FinalityError
	return errors.As(err, &fe)
}
