// Package modules contains the concrete processing units that can be loaded
// into chain slots: key-tracked filter banks, spectral filters, resonators,
// and the distortion family.
//
// Every module follows the same pattern. Parameters are declared once as a
// []module.ParamSpec, applied through ApplyParam with clamping at the
// boundary, and a changed value only marks coefficients dirty; the actual
// recompute happens at the start of the next Process call. Prepare sizes all
// scratch memory so Process never allocates.
//
// Build with -tags fastmath to swap the transcendental helpers for the
// algo-approx approximations.
package modules
