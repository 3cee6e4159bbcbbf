package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Prometheus text exposition for the handful of metric kinds the API needs.
// Series are keyed by their rendered label set and written in sorted order.

type family struct {
	name   string
	help   string
	kind   string
	labels []string

	mu     sync.RWMutex
	series map[string]float64
}

func newFamily(name, help, kind string, labels []string) *family {
	return &family{name: name, help: help, kind: kind, labels: labels, series: map[string]float64{}}
}

func (f *family) add(delta float64, values []string) {
	key := labelString(f.labels, values)
	f.mu.Lock()
	f.series[key] += delta
	f.mu.Unlock()
}

func (f *family) set(v float64, values []string) {
	key := labelString(f.labels, values)
	f.mu.Lock()
	f.series[key] = v
	f.mu.Unlock()
}

func (f *family) get(values []string) float64 {
	key := labelString(f.labels, values)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.series[key]
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

func (f *family) WritePrometheus(w io.Writer) error {
	if err := writeHeader(w, f.name, f.help, f.kind); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.labels) == 0 && len(f.series) == 0 {
		_, err := fmt.Fprintf(w, "%s 0\n", f.name)
		return err
	}
	for _, k := range sortedKeys(f.series) {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", f.name, k, formatFloat(f.series[k])); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ f *family }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{f: newFamily(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.f.add(v, values)
}

// Value reads one series.
func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.f.get(values)
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.f.WritePrometheus(w)
}

type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: NewCounterVec(name, help, nil)}
}

func (c *Counter) Inc() {
	if c != nil {
		c.vec.Inc()
	}
}

func (c *Counter) Add(v float64) {
	if c != nil {
		c.vec.Add(v)
	}
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.Value()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type GaugeVec struct{ f *family }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{f: newFamily(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g != nil {
		g.f.set(v, values)
	}
}

func (g *GaugeVec) Add(v float64, values ...string) {
	if g != nil {
		g.f.add(v, values)
	}
}

func (g *GaugeVec) Value(values ...string) float64 {
	if g == nil {
		return 0
	}
	return g.f.get(values)
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.f.WritePrometheus(w)
}

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: NewGaugeVec(name, help, nil)}
}

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Inc() {
	if g != nil {
		g.vec.Add(1)
	}
}

func (g *Gauge) Dec() {
	if g != nil {
		g.vec.Add(-1)
	}
}

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	return g.vec.Value()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	bounds  []float64
	mu      sync.RWMutex
	entries map[string]*histogramEntry
}

// histogramEntry keeps cumulative bucket counts; the last slot is +Inf.
type histogramEntry struct {
	cumulative []uint64
	sum        float64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	return &HistogramVec{name: name, help: help, labels: labels, bounds: bounds, entries: map[string]*histogramEntry{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.entries[key]
	if e == nil {
		e = &histogramEntry{cumulative: make([]uint64, len(h.bounds)+1)}
		h.entries[key] = e
	}
	e.sum += v
	first := sort.SearchFloat64s(h.bounds, v)
	for i := first; i < len(e.cumulative); i++ {
		e.cumulative[i]++
	}
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.entries) {
		e := h.entries[k]
		for i, le := range h.bounds {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, formatFloat(le)), e.cumulative[i]); err != nil {
				return err
			}
		}
		total := e.cumulative[len(e.cumulative)-1]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %s\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), total,
			h.name, k, formatFloat(e.sum),
			h.name, k, total,
		); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// labelString renders {a="x",b="y"}; missing values render as "unknown".
func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string {
	return labelEscaper.Replace(v)
}

func withLe(labels string, le string) string {
	pair := `le="` + escapeLabel(le) + `"`
	inner := strings.TrimSuffix(strings.TrimPrefix(labels, "{"), "}")
	if inner == "" {
		return "{" + pair + "}"
	}
	return "{" + inner + "," + pair + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
