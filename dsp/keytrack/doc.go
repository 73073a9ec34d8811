// Package keytrack turns a stream of note, sustain, and pitch-bend events
// into a single tracked frequency.
//
// A [Tracker] keeps the set of held notes, resolves it to one note under the
// active [Mode], and blends that note's frequency with the 440 Hz reference
// by the tracking amount. With no notes held the tracked frequency is always
// 440 Hz. Event ingestion does not allocate, so it runs on the audio thread
// at the start of every block.
package keytrack
