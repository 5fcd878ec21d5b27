// Package simulate generates reproducible multi-trial datasets for testing
// analysis code without real recordings.
//
// Options with zero values select documented defaults: one ChanTime trial of
// eight channels (chan00..chan07), one second at 256 Hz, Gaussian noise.
// Time and frequency limits are half-open: the first axis value equals the
// lower limit and the last is strictly below the upper one.
//
//	d, err := simulate.CreateData(simulate.Options{
//	    DataType: "ChanFreq",
//	    NTrial:   10,
//	    Freq:     &data.Limits{Start: 0, End: 10},
//	})
//
// An unrecognised data type fails with [data.ErrUnknownDataType].
package simulate
