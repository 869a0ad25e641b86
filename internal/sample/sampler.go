// Package sample reduces a column of text values to a bounded,
// representative subset that fits inside an LLM prompt's token budget.
package sample

import (
	"math/rand/v2"
	"strings"
)

// DefaultSize is the starting sample size for token-limited sampling.
const DefaultSize = 50

// shrinkFactor is the geometric backoff applied when a sample exceeds the
// token budget.
const shrinkFactor = 0.8

// Strategy selects how a sample is drawn.
type Strategy string

const (
	StrategyStratified Strategy = "stratified"
	StrategyRandom     Strategy = "random"
)

// EstimateTokens is a coarse token-count heuristic: ~4 characters per
// token. Callers must treat it as an approximation, not an exact count.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Stratified draws up to n values, stratifying by exact string equality so
// every distinct value is represented at least once when the budget allows.
// Each stratum gets its proportional share of n rounded to nearest, floored
// at 1; overshoot is trimmed from the largest strata first. Deterministic
// for a fixed seed. When len(values) <= n the input is returned unchanged.
func Stratified(values []string, n int, seed uint64) []string {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}

	// Group indices by value, preserving first-seen stratum order.
	order := make([]string, 0)
	strata := make(map[string][]int)
	for i, v := range values {
		if _, ok := strata[v]; !ok {
			order = append(order, v)
		}
		strata[v] = append(strata[v], i)
	}

	total := float64(len(values))
	alloc := make([]int, len(order))
	sum := 0
	for i, v := range order {
		share := float64(len(strata[v])) / total * float64(n)
		a := int(share + 0.5)
		if a < 1 {
			a = 1
		}
		alloc[i] = a
		sum += a
	}

	// Trim overshoot from the largest strata first so rare values keep
	// their single slot.
	for sum > n {
		largest := -1
		for i := range alloc {
			if alloc[i] > 1 && (largest == -1 || alloc[i] > alloc[largest]) {
				largest = i
			}
		}
		if largest == -1 {
			// Every stratum is at its floor; drop from the end.
			for i := len(alloc) - 1; i >= 0 && sum > n; i-- {
				if alloc[i] > 0 {
					alloc[i]--
					sum--
				}
			}
			break
		}
		alloc[largest]--
		sum--
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]string, 0, n)
	for i, v := range order {
		idxs := strata[v]
		k := alloc[i]
		if k > len(idxs) {
			k = len(idxs)
		}
		if k <= 0 {
			continue
		}
		perm := rng.Perm(len(idxs))
		for _, p := range perm[:k] {
			out = append(out, values[idxs[p]])
		}
	}
	return out
}

// Random draws n values uniformly without replacement. Deterministic for a
// fixed seed. When len(values) <= n the input is returned unchanged.
func Random(values []string, n int, seed uint64) []string {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(len(values))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = values[perm[i]]
	}
	return out
}

// WithTokenLimit samples values under a token budget. It starts at
// DefaultSize and shrinks the sample geometrically (×0.8) until the
// newline-joined sample fits the estimate, terminating once the size would
// reach zero. The worst case returns a single-value sample; the result is
// only empty when the input is.
func WithTokenLimit(values []string, maxTokens int, strategy Strategy, seed uint64) []string {
	if len(values) == 0 {
		return nil
	}

	for size := DefaultSize; size >= 1; size = int(float64(size) * shrinkFactor) {
		var sampled []string
		if strategy == StrategyRandom {
			sampled = Random(values, size, seed)
		} else {
			sampled = Stratified(values, size, seed)
		}

		if EstimateTokens(strings.Join(sampled, "\n")) <= maxTokens {
			return sampled
		}
	}

	// Nothing fits; degrade to the smallest non-empty sample.
	return values[:1]
}

// Unique returns up to n distinct values in first-seen order, sampling
// uniformly when there are more distinct values than n. Used to build
// discovery prompts where duplicates add no signal.
func Unique(values []string, n int, seed uint64) []string {
	seen := make(map[string]struct{})
	distinct := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	return Random(distinct, n, seed)
}
