package domain

import "errors"

// ErrInvalidWindow is returned for non-positive aggregation windows.
var ErrInvalidWindow = errors.New("window must be positive")
