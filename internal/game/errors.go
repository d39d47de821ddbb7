package game

import (
	"errors"
	"fmt"
)

// RuleError is an expected domain failure: wrong state for an operation,
// wrong actor, an out-of-range index, a full table. These are reported, not
// panicked, so normal game flow never trips fatal handling. Anything that
// panics instead indicates a broken model invariant.
type RuleError struct {
	msg string
}

func (e *RuleError) Error() string { return e.msg }

func ruleErrorf(format string, args ...any) error {
	return &RuleError{msg: fmt.Sprintf(format, args...)}
}

// IsRuleError reports whether err is an expected domain failure.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}
