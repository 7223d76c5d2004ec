package cfr

// floatSlicePool recycles the probability and utility vectors of one
// traversal. It is not safe for concurrent use: each worker owns its own.
type floatSlicePool struct {
	pool [][]float64
}

// alloc returns a zeroed slice of length n.
func (p *floatSlicePool) alloc(n int) []float64 {
	if len(p.pool) > 0 {
		m := len(p.pool)
		next := p.pool[m-1]
		p.pool = p.pool[:m-1]
		return append(next, make([]float64, n)...)
	}

	return make([]float64, n)
}

func (p *floatSlicePool) free(s []float64) {
	if cap(s) > 0 {
		p.pool = append(p.pool, s[:0])
	}
}

// mapPool recycles the per-traversal maps keyed by tally.
type mapPool[V any] struct {
	pool []map[*InformationSetNodeTally]V
}

func (p *mapPool[V]) alloc() map[*InformationSetNodeTally]V {
	if len(p.pool) > 0 {
		m := len(p.pool)
		next := p.pool[m-1]
		p.pool = p.pool[:m-1]
		return next
	}

	return make(map[*InformationSetNodeTally]V)
}

func (p *mapPool[V]) free(m map[*InformationSetNodeTally]V) {
	for k := range m {
		delete(m, k)
	}

	p.pool = append(p.pool, m)
}
