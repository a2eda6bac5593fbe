// Package replay drives a match state through a pre-recorded table of
// minute rows. Each row goes through the same Submit path as live input.
package replay

import (
	"fmt"

	"github.com/charleschow/fairodds/internal/core/state/match"
)

// RowError reports the first row Submit rejected.
type RowError struct {
	Index int
	Input match.EventInput
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (minute %d): %v", e.Index, e.Input.Minute, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Result is what a replay produced before it finished or stopped.
type Result struct {
	Applied int
	Records []match.LogRecord
}

// Run submits rows in order and stops at the first rejection. Rows applied
// before the failure stay applied.
func Run(s *match.State, rows []match.EventInput) (Result, error) {
	res := Result{Records: make([]match.LogRecord, 0, len(rows))}
	for i, in := range rows {
		rec, err := s.Submit(in)
		if err != nil {
			return res, &RowError{Index: i, Input: in, Err: err}
		}
		res.Records = append(res.Records, rec)
		res.Applied++
	}
	return res, nil
}
