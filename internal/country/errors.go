package country

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ConfigurationError reports a label with no registered handler.
type ConfigurationError struct {
	Label string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: unknown country module %q", e.Label)
}

// CheckError is one failed contract check.
type CheckError struct {
	Check  string
	Detail string
}

func (e *CheckError) Error() string {
	return e.Check + ": " + e.Detail
}

// ContractViolation reports a handler result that does not satisfy the
// Result contract. Every failed check is collected, not just the first.
type ContractViolation struct {
	Label  string
	Checks []string
	errs   *multierror.Error
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in country module %q: %s", e.Label, e.errs.Error())
}

// Unwrap exposes the individual check errors to errors.Is and errors.As.
func (e *ContractViolation) Unwrap() error {
	return e.errs.ErrorOrNil()
}

// Failed reports whether the named check is among the failures.
func (e *ContractViolation) Failed(check string) bool {
	for _, c := range e.Checks {
		if c == check {
			return true
		}
	}
	return false
}

// Errors returns the individual check errors.
func (e *ContractViolation) Errors() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.WrappedErrors()
}

// HandlerPanicError carries a value recovered from a panicking handler.
type HandlerPanicError struct {
	Label string
	Value any
	Stack []byte
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// violations accumulates failed checks for one label.
type violations struct {
	label  string
	checks []string
	errs   *multierror.Error
}

func (v *violations) add(check string, err error) {
	v.checks = append(v.checks, check)
	v.errs = multierror.Append(v.errs, err)
}

func (v *violations) fail(check, format string, args ...any) {
	v.add(check, &CheckError{Check: check, Detail: fmt.Sprintf(format, args...)})
}

func (v *violations) err() error {
	if v.errs.ErrorOrNil() == nil {
		return nil
	}
	v.errs.ErrorFormat = formatChecks
	return &ContractViolation{Label: v.label, Checks: v.checks, errs: v.errs}
}

func formatChecks(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
