package chem

import (
	"fmt"
	"strings"
)

// EquationTerm contributes Coef·(vfor-vbak) of one reaction to a species'
// rate equation.
type EquationTerm struct {
	Reaction int
	Coef     int
}

type Equation struct {
	Species int
	Terms   []EquationTerm
}

// Equations returns the symbolic right-hand side of every species' rate
// equation. Reactions in which a species has zero net stoichiometry are
// omitted. Held and forced species still get their equation.
func (n *Network) Equations() []Equation {
	eqs := make([]Equation, len(n.Species))
	for i := range n.Species {
		eqs[i].Species = i
		for r := range n.Reactions {
			if c := n.Reactions[r].Stoich(i); c != 0 {
				eqs[i].Terms = append(eqs[i].Terms, EquationTerm{Reaction: r, Coef: c})
			}
		}
	}
	return eqs
}

// FormatEquation renders an equation as "d[A]/dt = -v1 + 2*v3".
func (n *Network) FormatEquation(eq Equation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "d[%s]/dt =", n.Species[eq.Species].Name)
	if len(eq.Terms) == 0 {
		b.WriteString(" 0")
		return b.String()
	}
	for k, t := range eq.Terms {
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if k == 0 && sign == "+" {
			b.WriteString(" ")
		} else {
			fmt.Fprintf(&b, " %s ", sign)
		}
		if coef != 1 {
			fmt.Fprintf(&b, "%d*", coef)
		}
		fmt.Fprintf(&b, "v%d", t.Reaction+1)
	}
	return b.String()
}

// FormatFlux renders the net flux law of reaction r as "v1 = kf*[A]*[B] - kb*[C]".
func (n *Network) FormatFlux(r int) string {
	rx := &n.Reactions[r]
	if rx.Kinetics != MichaelisMenten {
		return fmt.Sprintf("v%d = %s - %s", r+1,
			n.monomial(rx.Kf, rx.Inputs), n.monomial(rx.Kb, rx.Outputs))
	}
	f := n.monomial(rx.Kf, rx.Substrates())
	b := n.monomial(rx.Kb2, rx.Products())
	return fmt.Sprintf("v%d = [%s]*(%g*%s - %g*%s)/(%s + %s + %g)", r+1,
		n.Species[rx.Enzyme()].Name, rx.Kf2, f, rx.Kb, b, f, b, rx.Kb+rx.Kf2)
}

func (n *Network) monomial(k float64, idx []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%g", k)
	for _, i := range idx {
		fmt.Fprintf(&b, "*[%s]", n.Species[i].Name)
	}
	return b.String()
}
