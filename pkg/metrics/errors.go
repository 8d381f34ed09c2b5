package metrics

import "errors"

// ErrGatherFailed is returned by Totals when the registry cannot be read.
var ErrGatherFailed = errors.New("metrics gather failed")
