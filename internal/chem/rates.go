package chem

// Evaluator computes reaction fluxes and net species production rates for a
// fixed network.
type Evaluator struct {
	net  *Network
	vfor []float64
	vbak []float64
}

func NewEvaluator(net *Network) *Evaluator {
	return &Evaluator{
		net:  net,
		vfor: make([]float64, net.NumReactions()),
		vbak: make([]float64, net.NumReactions()),
	}
}

func (e *Evaluator) Network() *Network { return e.net }

// Fluxes writes the forward and backward flux of every reaction at x.
func (e *Evaluator) Fluxes(x []float64, vfor, vbak []float64) {
	for r := range e.net.Reactions {
		vfor[r], vbak[r] = Flux(&e.net.Reactions[r], x)
	}
}

// Eval writes per-reaction fluxes and per-species net production rates.
func (e *Evaluator) Eval(x []float64, vfor, vbak, xrate []float64) {
	for i := range xrate {
		xrate[i] = 0
	}
	for r := range e.net.Reactions {
		rx := &e.net.Reactions[r]
		f, b := Flux(rx, x)
		vfor[r], vbak[r] = f, b
		net := f - b
		for _, i := range rx.Inputs {
			xrate[i] -= net
		}
		for _, i := range rx.Outputs {
			xrate[i] += net
		}
	}
}

// Derive writes net production rates into dst using internal flux buffers.
func (e *Evaluator) Derive(x []float64, dst []float64) {
	e.Eval(x, e.vfor, e.vbak, dst)
}

// NetFlux writes vfor-vbak per reaction, the rate of change of its extent.
func (e *Evaluator) NetFlux(x []float64, dst []float64) {
	e.Fluxes(x, e.vfor, e.vbak)
	for r := range dst {
		dst[r] = e.vfor[r] - e.vbak[r]
	}
}

// Flux returns the forward and backward flux of one reaction.
//
// Mass action: vfor = kf·Π inputs, vbak = kb·Π outputs.
// Michaelis-Menten with enzyme E, F = kf·Π substrates, B = kb2·Π products:
// vfor = E·kf2·F/D and vbak = E·kb·B/D where D = F + B + kb + kf2.
func Flux(rx *Reaction, x []float64) (vfor, vbak float64) {
	if rx.Kinetics != MichaelisMenten {
		return rx.Kf * product(rx.Inputs, x), rx.Kb * product(rx.Outputs, x)
	}

	f := rx.Kf * product(rx.Substrates(), x)
	b := rx.Kb2 * product(rx.Products(), x)
	d := f + b + rx.Kb + rx.Kf2
	if d == 0 {
		return 0, 0
	}
	scale := x[rx.Enzyme()] / d
	return scale * rx.Kf2 * f, scale * rx.Kb * b
}

func product(idx []int, x []float64) float64 {
	p := 1.0
	for _, i := range idx {
		p *= x[i]
	}
	return p
}
