package sim

import (
	"sync"

	"github.com/san-kum/kinsim/internal/chem"
)

// StatePool recycles the carry-over vectors passed between windows. It is
// safe for concurrent use, so one pool can serve every run of an ensemble.
type StatePool struct {
	pool sync.Pool
}

func NewStatePool() *StatePool {
	return &StatePool{}
}

// Get returns a zeroed state of length n.
func (p *StatePool) Get(n int) chem.State {
	if v, ok := p.pool.Get().(*chem.State); ok && cap(*v) >= n {
		s := (*v)[:n]
		for i := range s {
			s[i] = 0
		}
		return s
	}
	return make(chem.State, n)
}

func (p *StatePool) Put(s chem.State) {
	if cap(s) == 0 {
		return
	}
	p.pool.Put(&s)
}

func (p *StatePool) GetAndCopy(src []float64) chem.State {
	dst := p.Get(len(src))
	copy(dst, src)
	return dst
}
