package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/trajectory"
)

const namespace = "kinsim"

// Recorder collects solver counters per method in its own registry, for
// export through the node exporter textfile collector.
type Recorder struct {
	reg *prometheus.Registry

	windows     *prometheus.CounterVec
	steps       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	newton      *prometheus.CounterVec
	clamped     *prometheus.CounterVec
	truncated   *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, append([]string{"method"}, labels...))
	}
	r := &Recorder{
		reg:         prometheus.NewRegistry(),
		windows:     counter("windows_total", "Integration windows completed."),
		steps:       counter("steps_total", "Integration steps by outcome.", "outcome"),
		evaluations: counter("rate_evaluations_total", "Rate evaluations."),
		newton:      counter("newton_iterations_total", "Newton iterations of the stiff solver."),
		clamped:     counter("clamped_total", "Concentrations clamped at zero."),
		truncated:   counter("truncated_windows_total", "Adaptive windows that stopped short of their end."),
		runs:        counter("runs_total", "Runs by outcome.", "outcome"),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"method"}),
	}
	r.reg.MustRegister(r.windows, r.steps, r.evaluations, r.newton, r.clamped, r.truncated, r.runs, r.duration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observer returns a window observer labelled with method.
func (r *Recorder) Observer(method integrators.Method) sim.Observer {
	return &methodObserver{r: r, method: method.String()}
}

// ObserveRun records the outcome and wall time of a run.
func (r *Recorder) ObserveRun(res *sim.Result, err error) {
	if res == nil {
		return
	}
	method := res.Config.Method.String()
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case len(res.Warnings) > 0:
		outcome = "warning"
	}
	r.runs.WithLabelValues(method, outcome).Inc()
	r.duration.WithLabelValues(method).Observe(res.Elapsed.Seconds())
}

// WriteTextfile writes every metric in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

type methodObserver struct {
	r      *Recorder
	method string
}

func (o *methodObserver) OnWindow(tr *trajectory.Trajectory, st integrators.Stats) {
	r := o.r
	r.windows.WithLabelValues(o.method).Inc()
	r.steps.WithLabelValues(o.method, "accepted").Add(float64(st.Accepted))
	r.steps.WithLabelValues(o.method, "rejected").Add(float64(st.Rejected))
	r.evaluations.WithLabelValues(o.method).Add(float64(st.Evaluations))
	r.newton.WithLabelValues(o.method).Add(float64(st.NewtonIterations))
	r.clamped.WithLabelValues(o.method).Add(float64(st.Clamped))
	if st.Truncated {
		r.truncated.WithLabelValues(o.method).Inc()
	}
}
