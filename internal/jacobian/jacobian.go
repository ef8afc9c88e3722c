// Package jacobian prepares the symbolic Jacobian of a reaction network's
// rate equations once and evaluates it numerically on demand.
//
// Prepare walks every (equation species, derivative species) pair and
// collects signed monomial terms from the mass-action fluxes. Michaelis-
// Menten reactions are not polynomial; they contribute saturating terms
// differentiated with the quotient rule at evaluation time.
package jacobian

import (
	"math"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/linalg"
)

// Term is Multiplier · Multiplicity · Π x[Cofactors] · x[v]^(Multiplicity-1)
// for derivative variable v.
type Term struct {
	Reaction     int
	Backward     bool
	Multiplier   float64
	Multiplicity int
	Cofactors    []int
}

// Saturating is the contribution Stoich · ∂(vfor-vbak)/∂x[v] of one
// Michaelis-Menten reaction.
type Saturating struct {
	Reaction int
	Stoich   float64
}

// Cell collects every term of one Jacobian entry.
type Cell struct {
	Eq, Var    int
	Terms      []Term
	Saturating []Saturating
}

type Prepared struct {
	net   *chem.Network
	cells []Cell
	at    map[[2]int]int
}

// Prepare builds the term lists of net. Reactions in which the equation
// species has zero net stoichiometry contribute nothing and are never stored.
func Prepare(net *chem.Network) *Prepared {
	p := &Prepared{net: net, at: make(map[[2]int]int)}
	n := net.NumSpecies()

	for eq := 0; eq < n; eq++ {
		for r := range net.Reactions {
			rx := &net.Reactions[r]
			s := rx.Stoich(eq)
			if s == 0 {
				continue
			}

			if rx.Kinetics == chem.MichaelisMenten {
				for _, v := range saturatingVars(rx) {
					c := p.cell(eq, v)
					c.Saturating = append(c.Saturating, Saturating{Reaction: r, Stoich: float64(s)})
				}
				continue
			}

			p.addMonomials(eq, r, float64(s)*rx.Kf, false, rx.Inputs)
			p.addMonomials(eq, r, -float64(s)*rx.Kb, true, rx.Outputs)
		}
	}
	return p
}

func (p *Prepared) addMonomials(eq, r int, mult float64, backward bool, side []int) {
	if mult == 0 {
		return
	}
	for _, v := range distinct(side) {
		m := 0
		cof := make([]int, 0, len(side))
		for _, i := range side {
			if i == v {
				m++
			} else {
				cof = append(cof, i)
			}
		}
		c := p.cell(eq, v)
		c.Terms = append(c.Terms, Term{
			Reaction:     r,
			Backward:     backward,
			Multiplier:   mult,
			Multiplicity: m,
			Cofactors:    cof,
		})
	}
}

func (p *Prepared) cell(eq, v int) *Cell {
	key := [2]int{eq, v}
	if k, ok := p.at[key]; ok {
		return &p.cells[k]
	}
	p.cells = append(p.cells, Cell{Eq: eq, Var: v})
	p.at[key] = len(p.cells) - 1
	return &p.cells[len(p.cells)-1]
}

// Cell returns the terms of entry (eq, v), or nil when the entry is
// structurally zero.
func (p *Prepared) Cell(eq, v int) *Cell {
	if k, ok := p.at[[2]int{eq, v}]; ok {
		return &p.cells[k]
	}
	return nil
}

// Cells returns every structurally non-zero entry in preparation order.
func (p *Prepared) Cells() []Cell { return p.cells }

func (p *Prepared) NonZero() int { return len(p.cells) }

// Evaluate writes the Jacobian of the net production rates at x into dst.
func (p *Prepared) Evaluate(x []float64, dst *linalg.Dense) {
	dst.Zero()
	for k := range p.cells {
		c := &p.cells[k]
		sum := 0.0
		for _, t := range c.Terms {
			sum += t.value(x, c.Var)
		}
		for _, s := range c.Saturating {
			sum += s.Stoich * saturatingGrad(&p.net.Reactions[s.Reaction], x, c.Var)
		}
		dst.Set(c.Eq, c.Var, sum)
	}
}

func (t Term) value(x []float64, v int) float64 {
	val := t.Multiplier * float64(t.Multiplicity)
	for _, i := range t.Cofactors {
		val *= x[i]
	}
	if t.Multiplicity > 1 {
		val *= math.Pow(x[v], float64(t.Multiplicity-1))
	}
	return val
}

// saturatingGrad differentiates E·(kf2·F - kb·B)/D with respect to x[v], where
// F = kf·Π substrates, B = kb2·Π products and D = F + B + kb + kf2.
func saturatingGrad(rx *chem.Reaction, x []float64, v int) float64 {
	subs, prods := rx.Substrates(), rx.Products()
	f := rx.Kf * prod(subs, x)
	b := rx.Kb2 * prod(prods, x)
	d := f + b + rx.Kb + rx.Kf2
	if d == 0 {
		return 0
	}
	df := rx.Kf * monomialGrad(subs, x, v)
	db := rx.Kb2 * monomialGrad(prods, x, v)

	e := x[rx.Enzyme()]
	num := rx.Kf2*f - rx.Kb*b
	grad := e*(rx.Kf2*df-rx.Kb*db)/d - e*num*(df+db)/(d*d)
	if v == rx.Enzyme() {
		grad += num / d
	}
	return grad
}

// monomialGrad is ∂(Π x[idx])/∂x[v] with repeated indices as powers.
func monomialGrad(idx []int, x []float64, v int) float64 {
	m := 0
	rest := 1.0
	for _, i := range idx {
		if i == v {
			m++
		} else {
			rest *= x[i]
		}
	}
	if m == 0 {
		return 0
	}
	return float64(m) * rest * math.Pow(x[v], float64(m-1))
}

func prod(idx []int, x []float64) float64 {
	p := 1.0
	for _, i := range idx {
		p *= x[i]
	}
	return p
}

func distinct(idx []int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		seen := false
		for _, o := range out {
			if o == i {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, i)
		}
	}
	return out
}

func saturatingVars(rx *chem.Reaction) []int {
	vars := []int{rx.Enzyme()}
	vars = append(vars, rx.Substrates()...)
	vars = append(vars, rx.Products()...)
	return distinct(vars)
}
