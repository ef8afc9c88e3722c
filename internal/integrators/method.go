package integrators

import (
	"fmt"
	"strconv"
	"strings"
)

// Method selects an integration scheme. Values are the legacy option codes.
type Method int

const (
	MethodEuler         Method = 1
	MethodModifiedEuler Method = 2
	MethodRK4           Method = 3
	MethodRK45Adaptive  Method = 4
	MethodStiff         Method = 5
	MethodRK45          Method = 45
)

var methodNames = map[Method]string{
	MethodEuler:         "euler",
	MethodModifiedEuler: "modeuler",
	MethodRK4:           "rk4",
	MethodRK45:          "rk45",
	MethodRK45Adaptive:  "rk45a",
	MethodStiff:         "stiff",
}

var methodAliases = map[string]Method{
	"modified-euler": MethodModifiedEuler,
	"heun":           MethodModifiedEuler,
	"rkf45":          MethodRK45,
	"adaptive":       MethodRK45Adaptive,
	"rk45-adaptive":  MethodRK45Adaptive,
	"bdf":            MethodStiff,
	"bdf2":           MethodStiff,
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// Adaptive reports whether the method produces non-uniform step times.
func (m Method) Adaptive() bool { return m == MethodRK45Adaptive }

// ParseMethod accepts a method name, an alias or a legacy numeric code.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == key {
			return m, nil
		}
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	if code, err := strconv.Atoi(key); err == nil {
		return MethodFromCode(code)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func MethodFromCode(code int) (Method, error) {
	m := Method(code)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrUnknownMethod, code)
	}
	return m, nil
}

// Methods lists every method in code order.
func Methods() []Method {
	return []Method{MethodEuler, MethodModifiedEuler, MethodRK4, MethodRK45Adaptive, MethodStiff, MethodRK45}
}

type Options struct {
	Adaptive AdaptiveOptions
	Newton   NewtonOptions
}

func DefaultOptions() Options {
	return Options{
		Adaptive: DefaultAdaptiveOptions(),
		Newton:   DefaultNewtonOptions(),
	}
}

// New returns a fresh integrator for m. Integrators own scratch buffers and
// must not be shared between concurrent runs.
func New(m Method, opts Options) (Integrator, error) {
	switch m {
	case MethodEuler:
		return NewEuler(), nil
	case MethodModifiedEuler:
		return NewModifiedEuler(), nil
	case MethodRK4:
		return NewRK4(), nil
	case MethodRK45:
		return NewRK45(), nil
	case MethodRK45Adaptive:
		return NewAdaptive(opts.Adaptive), nil
	case MethodStiff:
		return NewStiff(opts.Newton), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, m)
}
