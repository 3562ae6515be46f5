// Package analysis inspects logged runs in the frequency domain.
//
// A rotor speed or generator torque trace that rings after a gust shows up
// as a peak in its power spectrum:
//
//	sp, err := analysis.NewSpectrum(omega, dt)
//	f, _ := sp.Dominant()
package analysis
