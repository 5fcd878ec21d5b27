// Package spectral provides the Fourier tools used to shape simulated noise
// and to filter montage channels.
package spectral
