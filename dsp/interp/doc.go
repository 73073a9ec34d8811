// Package interp provides interpolation primitives used by delay lines,
// wavetable oscillators and grain readers.
//
//   - [Linear]:   2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (good default for modulated delays)
//   - [Table]:    wrapped linear lookup into a single-cycle table
package interp
