// Package data provides the multi-dimensional trial model shared by the
// simulator, the montage code and the dataset store.
//
// A [Data] value is a collection of trials. Each trial is a dense [Array]
// whose dimensions are named axes drawn from the template of its [DataType]:
//
//   - [ChanTime]: chan x time
//   - [ChanFreq]: chan x freq
//   - [ChanTimeFreq]: chan x time x freq
//
// The channel axis always comes first. Axis values are stored per trial so
// that trials can be introspected independently, but for a given data type
// every trial has the same shape.
//
// # Example
//
//	d, _ := simulate.CreateData(simulate.Options{NTrial: 10})
//	n := d.NumTrial()
//	times, _ := d.AxisValues("time", 0)
package data
