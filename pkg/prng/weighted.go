package prng

// AliasTable implements Vose's alias method for O(1) sampling from a
// discrete weighted distribution built once in O(n). The source fuzzer
// rebuilds its rand_distr::WeightedAliasIndex only on invalidation (every
// UPDATE_ENERGY_INTERVAL executions, or when the feature/energy state
// changes); this mirrors that rebuild-on-demand shape.
type AliasTable struct {
	prob  []float64
	alias []int
}

// NewAliasTable builds an alias table from non-negative weights. If every
// weight is zero, the table degenerates to uniform sampling over all
// indices, matching the source's AllWeightsZero fallback.
func NewAliasTable(weights []float64) *AliasTable {
	n := len(weights)
	t := &AliasTable{prob: make([]float64, n), alias: make([]int, n)}
	if n == 0 {
		return t
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		for i := range t.prob {
			t.prob[i] = 1
			t.alias[i] = i
		}
		return t
	}

	scaled := make([]float64, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, w := range weights {
		scaled[i] = w * float64(n) / sum
		if scaled[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		t.prob[s] = scaled[s]
		t.alias[s] = l

		scaled[l] = scaled[l] + scaled[s] - 1
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	for _, l := range large {
		t.prob[l] = 1
	}
	for _, s := range small {
		t.prob[s] = 1
	}

	return t
}

// Sample draws one index from the distribution.
func (t *AliasTable) Sample(s *Source) int {
	n := len(t.prob)
	if n == 0 {
		return -1
	}
	i := s.Intn(n)
	if s.Float64() < t.prob[i] {
		return i
	}
	return t.alias[i]
}
