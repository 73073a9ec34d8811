// Package spectrum provides narrow-band probes and spectrum helpers used by
// the spectral modules, the CLI analyzer, and frequency assertions in tests.
package spectrum
