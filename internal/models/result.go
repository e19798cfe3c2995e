package models

import (
	"errors"
	"fmt"
	"strings"
)

// ResultStatus is the scoring outcome of a run
type ResultStatus string

const (
	ResultQualified    ResultStatus = "qualified"
	ResultNQ           ResultStatus = "nq"
	ResultAbsent       ResultStatus = "absent"
	ResultExcused      ResultStatus = "excused"
	ResultWithdrawn    ResultStatus = "withdrawn"
	ResultDisqualified ResultStatus = "disqualified"
)

var ErrInvalidResult = errors.New("invalid result")

// Result is a tagged outcome. NQ, excused, withdrawn and disqualified carry a reason.
type Result struct {
	Status ResultStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

func Qualified() Result { return Result{Status: ResultQualified} }
func NQ(reason string) Result { return Result{Status: ResultNQ, Reason: reason} }
func Absent() Result { return Result{Status: ResultAbsent} }
func Excused(reason string) Result { return Result{Status: ResultExcused, Reason: reason} }
func Withdrawn(reason string) Result { return Result{Status: ResultWithdrawn, Reason: reason} }
func Disqualified(reason string) Result { return Result{Status: ResultDisqualified, Reason: reason} }

// NeedsReason reports whether the status must be accompanied by a reason
func (s ResultStatus) NeedsReason() bool {
	switch s {
	case ResultNQ, ResultExcused, ResultWithdrawn, ResultDisqualified:
		return true
	}
	return false
}

// Validate checks the status is known and the reason matches it
func (r Result) Validate() error {
	switch r.Status {
	case ResultQualified, ResultAbsent:
		if r.Reason != "" {
			return fmt.Errorf("%w: %s does not take a reason", ErrInvalidResult, r.Status)
		}
	case ResultNQ, ResultExcused, ResultWithdrawn, ResultDisqualified:
		if strings.TrimSpace(r.Reason) == "" {
			return fmt.Errorf("%w: %s requires a reason", ErrInvalidResult, r.Status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResult, r.Status)
	}
	return nil
}

func (r Result) String() string {
	if r.Reason == "" {
		return string(r.Status)
	}
	return fmt.Sprintf("%s(%s)", r.Status, r.Reason)
}
