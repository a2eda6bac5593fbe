package match

import (
	"errors"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/strategy/overunder"
)

// Every error below is recoverable: the state is left untouched so the
// caller can correct the input and resubmit.
var (
	ErrInvalidOdds         = odds.ErrInvalidOdds
	ErrNoOddAvailable      = overunder.ErrNoOddAvailable
	ErrNonFinite           = overunder.ErrInvalidInput
	ErrOutOfOrderMinute    = errors.New("minute out of order")
	ErrEmptySubmission     = errors.New("submission carries no event or goal signal")
	ErrMatchLengthExceeded = errors.New("minute beyond match length")
	ErrInvalidEvent        = errors.New("invalid event counts")
	ErrNotStarted          = errors.New("match not started")
	ErrInvalidPolicy       = errors.New("invalid match policy")
)
