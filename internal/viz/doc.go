// Package viz is a terminal viewer for stored datasets.
//
// The viewer pages through a recording one overview window at a time and
// draws an asciigraph plot per visible channel, or per montage channel when
// groups are given.
//
// # Key Bindings
//
//	←/→ h/l - Previous/next window
//	↑/↓ k/j - Scroll channels
//	t / T   - Next/previous trial
//	c       - Cycle color themes
//	?       - Show help overlay
//	q       - Quit
package viz
