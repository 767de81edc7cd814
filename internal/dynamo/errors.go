package dynamo

import "errors"

// ErrParameterBounds indicates a parameter value is outside valid range.
var ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
