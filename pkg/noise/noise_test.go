package noise

import (
	"math"
	"math/rand"
	"testing"
)

func TestEstimateNoiseRejectsSmallGrids(t *testing.T) {
	if _, err := EstimateNoise(make([]float64, 4), 2, 2); err == nil {
		t.Error("expected error for a 2x2 grid")
	}
	if _, err := EstimateNoise(make([]float64, 6), 2, 3); err == nil {
		t.Error("expected error for a 2x3 grid")
	}
	if _, err := EstimateNoise(make([]float64, 5), 3, 3); err == nil {
		t.Error("expected error for a length mismatch")
	}
}

func TestCleanScanHasZeroSigma(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 0.5
	}

	est, err := EstimateNoise(data, 8, 8)
	if err != nil {
		t.Fatalf("EstimateNoise failed: %v", err)
	}

	if est.Sigma != 0 {
		t.Errorf("Expected sigma 0 for a constant scan, got %g", est.Sigma)
	}
	if est.SigmaMAD != 0 {
		t.Errorf("Expected MAD sigma 0 for a constant scan, got %g", est.SigmaMAD)
	}
	if est.SNR != 0 {
		t.Errorf("Expected SNR 0 when sigma is 0, got %g", est.SNR)
	}
	if est.Mean != 0.5 || est.StdDev != 0 {
		t.Errorf("Expected mean 0.5 and stddev 0, got %g and %g", est.Mean, est.StdDev)
	}
	if est.Min != 0.5 || est.Max != 0.5 {
		t.Errorf("Expected dynamic range [0.5, 0.5], got [%g, %g]", est.Min, est.Max)
	}
}

func TestSigmaRecoveryOnGaussianNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	rows, cols := 128, 128
	trueSigma := 0.05

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 0.5 + rng.NormFloat64()*trueSigma
	}

	est, err := EstimateNoise(data, rows, cols)
	if err != nil {
		t.Fatalf("EstimateNoise failed: %v", err)
	}

	// The estimator is unbiased on pure noise; allow a generous
	// tolerance for the finite grid.
	if math.Abs(est.Sigma-trueSigma)/trueSigma > 0.15 {
		t.Errorf("Expected sigma near %g, got %g", trueSigma, est.Sigma)
	}
	if math.Abs(est.SigmaMAD-trueSigma)/trueSigma > 0.2 {
		t.Errorf("Expected MAD sigma near %g, got %g", trueSigma, est.SigmaMAD)
	}
	if est.SNR <= 0 {
		t.Errorf("Expected positive SNR, got %g", est.SNR)
	}
}

func TestSigmaIgnoresLinearTrend(t *testing.T) {
	// The Laplacian kernel annihilates linear ramps, so a noiseless
	// gradient must not register as noise.
	rows, cols := 32, 32
	data := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data[y*cols+x] = float64(x)*0.01 + float64(y)*0.02
		}
	}

	est, err := EstimateNoise(data, rows, cols)
	if err != nil {
		t.Fatalf("EstimateNoise failed: %v", err)
	}
	if est.Sigma > 1e-12 {
		t.Errorf("Expected sigma 0 for a noiseless ramp, got %g", est.Sigma)
	}
}
