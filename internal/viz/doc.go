// Package viz draws the race in the terminal.
//
//   - [Model]: the live Bubble Tea race view
//   - [Menu]: preset picker and anchor editor in front of the live view
//   - [Canvas]: braille pixel canvas with per-cell colour
//   - [Camera]: orthographic side and oblique projections
//   - [Plot]: static multi-series charts for recorded runs
//
// # Key Bindings
//
//	S     - Start the race
//	Space - Pause/Resume
//	R     - Put the bodies back on the platform
//	V     - Toggle side / oblique view
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Time travel (rewind/forward)
//
// # Recording
//
// G records the canvas as a GIF, saved next to the working directory under
// the race label.
package viz
