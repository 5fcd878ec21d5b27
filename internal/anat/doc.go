// Package anat maps coordinates in a subject's surface-RAS space to
// anatomical region labels.
//
// Region names and colors come from a Freesurfer color lookup table ([LUT]).
// Labeled voxels come from an [Atlas], a sparse 1-mm grid of LUT indices.
//
// # Search
//
// [Freesurfer.FindBrainRegion] rounds the coordinate to the nearest voxel and
// examines cubes of growing Chebyshev radius 0, 1, ..., maxApprox around it.
// The first radius containing a labeled voxel is returned as the
// approximation distance. When several labels share that radius the lowest
// LUT index wins. Background (index 0) never matches. If nothing is found the
// label is [NotFound] and the distance equals maxApprox.
//
// # Paths
//
// The lookup table location is injected by the caller: an explicit file path,
// or a Freesurfer installation directory that contains FreeSurferColorLUT.txt.
package anat
