package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var ErrLength = errors.New("analysis: fft length must be a power of two")

// FFT is a recursive radix-2 transform of real input.
func FFT(data []float64) ([]complex128, error) {
	n := len(data)
	if n&(n-1) != 0 {
		return nil, fmt.Errorf("%w, got %d", ErrLength, n)
	}
	return fft(data), nil
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// NextPow2 returns the smallest power of two not below n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
