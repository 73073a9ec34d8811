// Package design computes biquad coefficients from musical parameters.
//
// The second-order designers follow the RBJ audio-EQ cookbook. Butterworth
// cascades are assembled from RBJ sections with the pole-pair Q values of
// the requested order. Invalid inputs (non-positive or super-Nyquist
// frequencies, bad sample rates) yield the zero [biquad.Coefficients], which
// silences a section rather than letting it blow up.
package design
