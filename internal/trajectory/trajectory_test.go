package trajectory

import (
	"errors"
	"testing"
)

func TestNewUniformTimes(t *testing.T) {
	tr := New(1, 2, 4, 4, 2, 1, Options{Diagnostics: true})

	if tr.Dt != 0.5 {
		t.Errorf("expected dt 0.5, got %f", tr.Dt)
	}
	expected := []float64{2, 2.5, 3, 3.5, 4}
	for i, want := range expected {
		if tr.Time(i) != want {
			t.Errorf("time %d: expected %f, got %f", i, want, tr.Time(i))
		}
	}
	if tr.Species.Rows() != 5 || tr.Extents.Rows() != 5 {
		t.Errorf("expected 5 rows, got %d/%d", tr.Species.Rows(), tr.Extents.Rows())
	}
	if tr.Top() != 4 {
		t.Errorf("expected top 4, got %d", tr.Top())
	}
}

func TestNoDiagnostics(t *testing.T) {
	tr := New(1, 0, 1, 2, 2, 3, Options{})
	if tr.Diagnostics() || tr.FinalExtents() != nil {
		t.Error("extents must not be tracked without diagnostics")
	}
	st := NewStore()
	st.Append(tr)
	if times, values := st.ExtentSeries(0); times != nil || values != nil {
		t.Error("expected nil extent series")
	}
}

func TestGrowAndFinish(t *testing.T) {
	tr := New(1, 0, 1, 2, 1, 1, Options{Diagnostics: true})
	for step := 3; step <= 6; step++ {
		if err := tr.Grow(step); err != nil {
			t.Fatalf("grow %d: %v", step, err)
		}
		tr.Species.Set(step, 0, float64(step))
		tr.Times[step] = float64(step) / 10
	}
	tr.Finish(5)

	if tr.Top() != 5 || tr.Species.Rows() != 6 || len(tr.Times) != 6 {
		t.Fatalf("unexpected shape: top %d rows %d times %d", tr.Top(), tr.Species.Rows(), len(tr.Times))
	}
	if tr.Final()[0] != 5 {
		t.Errorf("expected final 5, got %f", tr.Final()[0])
	}
}

func TestGridCap(t *testing.T) {
	g := NewGrid(2, 1, 3)
	if err := g.Grow(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Grow(3); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
}

func TestStoreSeriesSkipsSeams(t *testing.T) {
	st := NewStore()

	w1 := New(1, 0, 1, 2, 1, 0, Options{})
	w1.Seed([]float64{1}, nil)
	w1.Species.Set(1, 0, 2)
	w1.Species.Set(2, 0, 3)
	st.Append(w1)

	w2 := New(2, 1, 3, 2, 1, 0, Options{})
	w2.Seed(w1.Final(), nil)
	w2.Species.Set(1, 0, 4)
	w2.Species.Set(2, 0, 5)
	st.Append(w2)

	times, values := st.Series(0)
	wantT := []float64{0, 0.5, 1, 2, 3}
	wantV := []float64{1, 2, 3, 4, 5}
	if len(times) != len(wantT) {
		t.Fatalf("expected %d samples, got %d", len(wantT), len(times))
	}
	for i := range wantT {
		if times[i] != wantT[i] || values[i] != wantV[i] {
			t.Errorf("sample %d: expected (%f, %f), got (%f, %f)", i, wantT[i], wantV[i], times[i], values[i])
		}
	}
	if st.Initial()[0] != 1 || st.Final()[0] != 5 {
		t.Errorf("unexpected initial/final %v %v", st.Initial(), st.Final())
	}
}
