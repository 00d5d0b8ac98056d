package export

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrWriteResults = errors.New("write results failed")
)
