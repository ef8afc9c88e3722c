// Package linalg solves small dense linear systems by scaled partial-pivot
// Gauss elimination.
package linalg

// Dense is a square row-major matrix.
type Dense struct {
	n    int
	data []float64
}

func NewDense(n int) *Dense {
	return &Dense{n: n, data: make([]float64, n*n)}
}

// NewDenseFrom copies rows into a new matrix. Every row must have len(rows)
// entries.
func NewDenseFrom(rows [][]float64) *Dense {
	d := NewDense(len(rows))
	for i, row := range rows {
		copy(d.data[i*d.n:(i+1)*d.n], row)
	}
	return d
}

func (d *Dense) N() int { return d.n }
func (d *Dense) At(i, j int) float64 { return d.data[i*d.n+j] }
func (d *Dense) Set(i, j int, v float64) { d.data[i*d.n+j] = v }
func (d *Dense) Add(i, j int, v float64) { d.data[i*d.n+j] += v }
func (d *Dense) Row(i int) []float64 { return d.data[i*d.n : (i+1)*d.n] }
func (d *Dense) RawData() []float64 { return d.data }
func (d *Dense) CopyFrom(src *Dense) { copy(d.data, src.data) }

func (d *Dense) Zero() {
	for k := range d.data {
		d.data[k] = 0
	}
}

// SetIdentityMinus stores I - h·m into d.
func (d *Dense) SetIdentityMinus(h float64, m *Dense) {
	for i := 0; i < d.n; i++ {
		for j := 0; j < d.n; j++ {
			v := -h * m.At(i, j)
			if i == j {
				v += 1
			}
			d.Set(i, j, v)
		}
	}
}

// SetIdentityRow replaces row i with the i-th unit row.
func (d *Dense) SetIdentityRow(i int) {
	row := d.Row(i)
	for j := range row {
		row[j] = 0
	}
	row[i] = 1
}
