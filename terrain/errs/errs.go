// Package errs holds the error sentinels shared by every stage of terrain
// generation. Stages wrap them with context, so callers should compare using
// errors.Is.
package errs

import "errors"

var (
	// ErrInvalidConfiguration is returned when generation parameters are unusable, such as non-positive
	// dimensions, an unsupported noise type or a layer count the host does not expect. It is always reported
	// before any host buffer is written.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDegenerateWeights is returned when a texel's raw layer weights sum to zero and cannot be normalised.
	ErrDegenerateWeights = errors.New("degenerate splat weights")
	// ErrHostQuery is returned when the terrain host fails a query or answers with out of range data.
	ErrHostQuery = errors.New("host query failed")
)
