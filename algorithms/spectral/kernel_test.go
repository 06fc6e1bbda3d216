package spectral

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 48000.0
	testBins       = 512
)

func TestBinFrequency(t *testing.T) {
	assert.Equal(t, 2.0, BinFrequency(0, 4, 8))
	assert.Equal(t, 4.0, BinFrequency(1, 4, 8))
	assert.Equal(t, 8.0, BinFrequency(3, 4, 8))
}

func TestKernelPeaksAtMeanBin(t *testing.T) {
	// bins at 2, 4, 6, 8 Hz; the 4 Hz bin sits exactly on the mean
	k, err := BuildLogNormalKernel(4, 2, 8, 4)
	require.NoError(t, err)

	profile := k.Profile()
	assert.Equal(t, 1, k.PeakBin())
	assert.Equal(t, KernelScale, profile[1])
	for i, w := range profile {
		if i != 1 {
			assert.Less(t, w, profile[1], "bin %d", i)
		}
	}
	assert.Equal(t, uint8(255), k.At(1), "256 must clip to 255")
}

func TestKernelPeakIsClosestBinInLogSpace(t *testing.T) {
	for _, d := range DefaultBandDesigns() {
		t.Run(d.Name, func(t *testing.T) {
			k, err := BuildLogNormalKernel(d.MeanHz, d.StdHz, testSampleRate, testBins)
			require.NoError(t, err)

			want, best := 0, math.Inf(1)
			for i := 0; i < testBins; i++ {
				dist := math.Abs(math.Log(BinFrequency(i, testBins, testSampleRate)) - math.Log(d.MeanHz))
				if dist < best {
					want, best = i, dist
				}
			}
			assert.Equal(t, want, k.PeakBin())
		})
	}
}

func TestKernelDecreasesAwayFromMean(t *testing.T) {
	for _, d := range DefaultBandDesigns() {
		t.Run(d.Name, func(t *testing.T) {
			profile, err := LogNormalWeights(d.MeanHz, d.StdHz, testSampleRate, testBins)
			require.NoError(t, err)

			mu := math.Log(d.MeanHz)
			dist := func(i int) float64 {
				return math.Abs(math.Log(BinFrequency(i, testBins, testSampleRate)) - mu)
			}

			idx := make([]int, testBins)
			for i := range idx {
				idx[i] = i
			}
			sort.Slice(idx, func(a, b int) bool { return dist(idx[a]) < dist(idx[b]) })

			for j := 1; j < len(idx); j++ {
				prev, cur := idx[j-1], idx[j]
				if dist(cur) == dist(prev) {
					continue
				}
				assert.LessOrEqual(t, profile[cur], profile[prev])
				if profile[cur] > 1e-9 {
					assert.Less(t, profile[cur], profile[prev], "bins %d -> %d", prev, cur)
				}
			}
		})
	}
}

func TestKernelWeightBounds(t *testing.T) {
	cases := []struct {
		mean, std, rate float64
		length          int
	}{
		{200, 300, 44100, 512},
		{1000, 500, 48000, 512},
		{10000, 1000, 96000, 2048},
		{4, 2, 8, 4},
		{1, 0.01, 1, 1},
	}

	for _, c := range cases {
		k, err := BuildLogNormalKernel(c.mean, c.std, c.rate, c.length)
		require.NoError(t, err)
		require.Equal(t, c.length, k.Len())

		profile := k.Profile()
		weights := k.Weights()
		require.Len(t, weights, c.length)
		for i, w := range profile {
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, KernelScale)
			assert.Equal(t, truncateWeight(w), weights[i])
			assert.LessOrEqual(t, float64(weights[i]), w)
		}
	}
}

func TestTruncateWeight(t *testing.T) {
	assert.Equal(t, uint8(0), truncateWeight(0))
	assert.Equal(t, uint8(0), truncateWeight(0.99))
	assert.Equal(t, uint8(127), truncateWeight(127.9))
	assert.Equal(t, uint8(255), truncateWeight(255.5))
	assert.Equal(t, uint8(255), truncateWeight(256))
}

func TestBuildKernelErrors(t *testing.T) {
	_, err := BuildLogNormalKernel(200, 300, 0, 512)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = BuildLogNormalKernel(200, 300, math.NaN(), 512)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = BuildLogNormalKernel(0, 300, 48000, 512)
	assert.True(t, errors.Is(err, ErrInvalidKernel))

	_, err = BuildLogNormalKernel(200, -1, 48000, 512)
	assert.True(t, errors.Is(err, ErrInvalidKernel))

	_, err = BuildLogNormalKernel(200, 300, 48000, 0)
	assert.True(t, errors.Is(err, ErrInvalidKernel))
}

func TestKernelAccessorsReturnCopies(t *testing.T) {
	k, err := BuildLogNormalKernel(1000, 500, testSampleRate, testBins)
	require.NoError(t, err)

	w := k.Weights()
	w[k.PeakBin()] = 0
	assert.NotZero(t, k.At(k.PeakBin()))

	p := k.Profile()
	p[0] = -1
	assert.GreaterOrEqual(t, k.Profile()[0], 0.0)

	assert.Equal(t, 1000.0, k.MeanHz())
	assert.Equal(t, 500.0, k.StdHz())
	assert.Equal(t, testSampleRate, k.SampleRate())
}

func TestKernelCentroid(t *testing.T) {
	// a narrow log-normal centroid sits near mean*exp(3*sigma^2/2)
	k, err := BuildLogNormalKernel(10000, 1000, testSampleRate, testBins)
	require.NoError(t, err)
	assert.InEpsilon(t, 10000*math.Exp(1.5*0.01), k.Centroid(), 0.03)

	// 1 Hz mean with a 1e-3 spread puts no weight in any bin
	empty, err := BuildLogNormalKernel(1, 0.001, testSampleRate, testBins)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Centroid())
}
