package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OpCounters exposes the IEEE backend's --count-op counters. chaos-utils
// wires client_golang as a query client against an external Prometheus;
// the perturbation core has no external Prometheus to query against, so
// the same dependency is repurposed here for direct counter exposition
// via promauto, the registration style the library itself recommends.
type OpCounters struct {
	reg     *prometheus.Registry
	byOp    *prometheus.CounterVec
	byClass *prometheus.CounterVec
}

// NewOpCounters creates a counter set registered under its own registry
// so multiple backend instances in one process don't collide on names.
func NewOpCounters(backend string) *OpCounters {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &OpCounters{
		reg: reg,
		byOp: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interflop",
			Subsystem: backend,
			Name:      "ops_total",
			Help:      "Elementary floating-point operations handled by this backend.",
		}, []string{"op", "type"}),
		byClass: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interflop",
			Subsystem: backend,
			Name:      "operand_class_total",
			Help:      "Operand classifications (normal/subnormal/zero/inf/nan) observed.",
		}, []string{"class"}),
	}
}

// Inc records one operation of the given kind and type ("add","binary64").
func (c *OpCounters) Inc(op, typeName string) {
	c.byOp.WithLabelValues(op, typeName).Inc()
}

// IncClass records one operand classification observed on a hot path.
func (c *OpCounters) IncClass(class string) {
	c.byClass.WithLabelValues(class).Inc()
}

// Registry exposes the underlying registry for a /metrics handler or a
// finalize-time textual dump.
func (c *OpCounters) Registry() *prometheus.Registry {
	return c.reg
}
