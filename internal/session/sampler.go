package session

// Sampler draws bounded question subsets from a pool without repetition. The
// pool itself is never mutated; every call returns a fresh sequence.
type Sampler struct {
	stream *Stream
}

// NewSampler builds a sampler on a deterministic stream. Distinct labelled
// streams give independent draws for independent sessions.
func NewSampler(stream *Stream) *Sampler { return &Sampler{stream: stream} }

// Sample returns count distinct questions drawn uniformly from pool. If
// count >= len(pool) every entry is returned exactly once in shuffled order.
// Negative counts are rejected. Draw order carries no bias: this is a partial
// Fisher-Yates over a copied index slice.
func (s *Sampler) Sample(pool []Question, count int) ([]Question, error) {
	if count < 0 {
		return nil, validationf("sample count %d is negative", count)
	}
	n := len(pool)
	if count > n {
		count = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := make([]Question, 0, count)
	remaining := n
	for i := 0; i < count; i++ {
		j := i + s.stream.Intn(remaining)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, pool[idx[i]])
		remaining--
	}
	return out, nil
}

// Resample draws count questions from pool excluding the given ids. Used to
// replace a single wizard slot without re-drawing the whole sequence. Returns
// a validation error when the pool cannot cover the request.
func (s *Sampler) Resample(pool []Question, excludeIDs map[string]struct{}, count int) ([]Question, error) {
	if count < 0 {
		return nil, validationf("resample count %d is negative", count)
	}
	eligible := make([]Question, 0, len(pool))
	for _, q := range pool {
		if _, excluded := excludeIDs[q.ID]; excluded {
			continue
		}
		eligible = append(eligible, q)
	}
	if count > len(eligible) {
		return nil, validationf("pool exhausted: need %d questions, %d eligible", count, len(eligible))
	}
	return s.Sample(eligible, count)
}
