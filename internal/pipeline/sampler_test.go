package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_GreedyWhenSamplingDisabled(t *testing.T) {
	s := NewSampler(Params{DoSample: false, Temperature: 0.7, TopP: 0.9}, rand.New(rand.NewSource(1)))
	for i := 0; i < 20; i++ {
		require.Equal(t, 2, s.Sample([]float32{0.1, 1.5, 3.2, -4}))
	}
}

func TestSampler_GreedyWhenTemperatureNotPositive(t *testing.T) {
	s := NewSampler(Params{DoSample: true, Temperature: 0, TopP: 0.9}, rand.New(rand.NewSource(1)))
	require.Equal(t, 0, s.Sample([]float32{9, 1, 1}))
}

func TestSampler_NucleusDropsTail(t *testing.T) {
	// token 0 carries ~0.98 of the mass, so a 0.9 nucleus holds only it
	logits := []float32{8, 4, 0, 0, 0}
	s := NewSampler(Params{DoSample: true, Temperature: 1, TopP: 0.9}, rand.New(rand.NewSource(42)))
	for i := 0; i < 200; i++ {
		require.Equal(t, 0, s.Sample(logits))
	}
}

func TestSampler_DrawsAcrossNucleus(t *testing.T) {
	logits := []float32{1, 1, 1, 1}
	s := NewSampler(Params{DoSample: true, Temperature: 1, TopP: 1}, rand.New(rand.NewSource(7)))

	seen := map[int]int{}
	for i := 0; i < 400; i++ {
		idx := s.Sample(logits)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(logits))
		seen[idx]++
	}
	assert.Len(t, seen, len(logits), "uniform logits should reach every token")
}

func TestSampler_LowTemperatureSharpens(t *testing.T) {
	logits := []float32{2, 1.9, 0}
	s := NewSampler(Params{DoSample: true, Temperature: 0.01, TopP: 0.99}, rand.New(rand.NewSource(3)))
	for i := 0; i < 100; i++ {
		require.Equal(t, 0, s.Sample(logits))
	}
}

func TestSampler_EmptyLogits(t *testing.T) {
	s := NewSampler(Params{DoSample: true, Temperature: 1, TopP: 0.9}, nil)
	require.Equal(t, -1, s.Sample(nil))
}
