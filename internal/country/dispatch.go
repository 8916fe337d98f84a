package country

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/JonMunkholm/covidboard/internal/dataset"
	"github.com/JonMunkholm/covidboard/internal/logging"
)

// Status is the non-error outcome of a dispatch.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
)

// Outcome is a successful dispatch. Result is nil when Status is StatusEmpty.
type Outcome struct {
	Label  string  `json:"label"`
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
}

// Empty reports whether the handler found no data.
func (o Outcome) Empty() bool { return o.Status == StatusEmpty }

// Dispatcher runs registered handlers against the unified table.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Registry returns the registry the dispatcher resolves labels against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch resolves label, runs its handler over t and validates the result.
//
// An unregistered label fails with *ConfigurationError. A nil result is an
// Outcome with StatusEmpty, not an error. A malformed result or a panicking
// handler fails with *ContractViolation. Failures never affect other labels.
func (d *Dispatcher) Dispatch(ctx context.Context, label string, t *dataset.Table) (Outcome, error) {
	ctx = logging.ContextWithLabel(ctx, label)
	logger := logging.FromContext(ctx)

	h, err := d.registry.Resolve(label)
	if err != nil {
		logger.Warn("dispatch to unregistered country", "error", err)
		return Outcome{}, err
	}

	start := time.Now()
	res, err := invoke(label, h, t)
	if err != nil {
		logger.Error("country handler panicked", "error", err)
		return Outcome{}, err
	}
	if res == nil {
		logger.Debug("country handler returned no data",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return Outcome{Label: label, Status: StatusEmpty}, nil
	}

	if err := Validate(label, res); err != nil {
		logger.Error("country handler broke result contract", "error", err)
		return Outcome{}, err
	}

	logger.Debug("country dispatched",
		"rows", res.Data.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Outcome{Label: label, Status: StatusOK, Result: res}, nil
}

// invoke calls h, converting a panic into a *ContractViolation.
func invoke(label string, h Handler, t *dataset.Table) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			v := &violations{label: label}
			v.add(CheckPanic, &HandlerPanicError{Label: label, Value: p, Stack: debug.Stack()})
			res, err = nil, v.err()
		}
	}()
	return h(t), nil
}
