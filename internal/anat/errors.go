package anat

import "errors"

var (
	// ErrHomeUnavailable indicates that no Freesurfer installation directory was
	// configured, or that it holds no default lookup table.
	ErrHomeUnavailable = errors.New("anat: freesurfer home not configured or missing lookup table")

	// ErrLUTNotFound indicates an explicitly requested lookup table file does not exist.
	ErrLUTNotFound = errors.New("anat: lookup table not found")

	// ErrUnknownParcellation indicates a parcellation name without an atlas file.
	ErrUnknownParcellation = errors.New("anat: unknown parcellation")

	// ErrUnknownIndex indicates an atlas voxel whose index is missing from the LUT.
	ErrUnknownIndex = errors.New("anat: atlas index missing from lookup table")

	ErrInvalidArgument = errors.New("anat: invalid argument")
)
