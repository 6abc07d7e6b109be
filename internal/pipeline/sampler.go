package pipeline

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Sampler picks the next token id from a row of logits.
type Sampler struct {
	greedy      bool
	temperature float64
	topP        float64
	rng         *rand.Rand

	// scratch buffers reused across steps
	probs []float64
	order []int
}

func NewSampler(params Params, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{
		greedy:      !params.DoSample || params.Temperature <= 0,
		temperature: params.Temperature,
		topP:        params.TopP,
		rng:         rng,
	}
}

func (s *Sampler) Sample(logits []float32) int {
	if len(logits) == 0 {
		return -1
	}
	if s.greedy {
		return argmax(logits)
	}

	probs := s.softmax(logits)

	order := s.order[:0]
	for i := range probs {
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })
	s.order = order

	// nucleus: smallest prefix whose mass reaches topP, never empty
	kept := len(order)
	if s.topP > 0 && s.topP < 1 {
		var cumulative float64
		for i, idx := range order {
			cumulative += probs[idx]
			if cumulative >= s.topP {
				kept = i + 1
				break
			}
		}
	}

	var mass float64
	for _, idx := range order[:kept] {
		mass += probs[idx]
	}
	target := s.rng.Float64() * mass
	for _, idx := range order[:kept] {
		target -= probs[idx]
		if target <= 0 {
			return idx
		}
	}
	return order[kept-1]
}

func (s *Sampler) softmax(logits []float32) []float64 {
	if cap(s.probs) < len(logits) {
		s.probs = make([]float64, len(logits))
	}
	probs := s.probs[:len(logits)]

	maxLogit := float64(logits[argmax(logits)])
	var sum float64
	for i, l := range logits {
		p := math.Exp((float64(l) - maxLogit) / s.temperature)
		probs[i] = p
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(values []float32) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
