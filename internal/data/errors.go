package data

import "errors"

// Domain errors for the trial model.
var (
	// ErrUnknownDataType indicates a data type outside the fixed template set.
	ErrUnknownDataType = errors.New("data: unknown data type")

	// ErrInvalidLimits indicates an empty or inverted half-open interval, or a non-positive step.
	ErrInvalidLimits = errors.New("data: invalid axis limits")

	// ErrDimensionMismatch indicates a trial whose shape disagrees with its axes.
	ErrDimensionMismatch = errors.New("data: dimension mismatch between trial and axes")

	// ErrUnknownAxis indicates an axis name not present in the data type.
	ErrUnknownAxis = errors.New("data: unknown axis")

	// ErrTrialRange indicates a trial index outside [0, NumTrial).
	ErrTrialRange = errors.New("data: trial index out of range")
)
