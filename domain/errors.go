package domain

import (
	"errors"
	"fmt"
)

// RuleViolation reports that a named business rule blocked an operation.
// The message is safe to surface to API callers verbatim.
type RuleViolation struct {
	Rule string
}

func (e *RuleViolation) Error() string {
	return e.Rule
}

// Violation builds a RuleViolation error for the given rule description.
func Violation(rule string) error {
	return &RuleViolation{Rule: rule}
}

// IsRuleViolation reports whether err is (or wraps) a RuleViolation.
func IsRuleViolation(err error) bool {
	var rv *RuleViolation
	return errors.As(err, &rv)
}

// NotFound reports that a referenced resource does not exist.
type NotFound struct {
	Resource string
	ID       string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Resource, e.ID)
}

// NewNotFound builds a NotFound error for the given resource and id.
func NewNotFound(resource, id string) error {
	return &NotFound{Resource: resource, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFound.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}
