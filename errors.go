package runwire

import "fmt"

// RegistrationError means a callable could not be added to a runner: the
// callable is not a function, its requirement specs are malformed, or the
// specs do not line up with its signature. Nothing is scheduled when Add or
// Extend returns one of these.
type RegistrationError struct {
	Callable string
	Err      error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Callable, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// UnsatisfiedRequirementError means a required point had no value in the
// resource context when a callable was about to run. It aborts the
// invocation.
type UnsatisfiedRequirementError struct {
	Point       Point
	Requirement Requirement
	Callable    string
}

func (e *UnsatisfiedRequirementError) Error() string {
	return fmt.Sprintf("no %s in context, required by %s", e.Requirement, e.Callable)
}

// ResolutionError means a resolved value could not serve its requirement: an
// accessor was applied to a value that cannot satisfy it, or the final value
// is not assignable to the parameter it binds.
type ResolutionError struct {
	Requirement Requirement
	Callable    string
	Reason      string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s for %s: %s", e.Requirement, e.Callable, e.Reason)
}

// ReturnArityError means the number of values a callable produced does not
// match its return-point overrides.
type ReturnArityError struct {
	Callable string
	Want     int
	Got      int
}

func (e *ReturnArityError) Error() string {
	return fmt.Sprintf("%s: %d return points declared but %d values produced", e.Callable, e.Want, e.Got)
}
