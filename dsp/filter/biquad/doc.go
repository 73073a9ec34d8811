// Package biquad provides second-order IIR filter sections and cascades.
//
// A [Section] runs Direct Form II Transposed processing for one set of
// [Coefficients]. A [Chain] cascades several sections, which is how the EQ
// and tone stages build higher-order responses. Coefficient design lives in
// dsp/filter/design.
package biquad
