// Package stats provides a minimal scoped stats interface backed by
// go-metrics, so instrument names stay hierarchical and callers can be
// handed a receiver already namespaced to their component.
package stats

import (
	"encoding/json"
	"strings"

	"github.com/rcrowley/go-metrics"
)

// StatsReceiver can be passed down a call tree and scoped at each level.
type StatsReceiver interface {
	// Scope returns a receiver that namespaces instrument names with the
	// given scope elements.
	Scope(scope ...string) StatsReceiver

	// Counter returns the named event counter, creating it if needed.
	Counter(name ...string) metrics.Counter

	// Gauge returns the named int64 gauge, creating it if needed.
	Gauge(name ...string) metrics.Gauge

	// Render marshals a snapshot of all registered instruments as JSON.
	Render() ([]byte, error)
}

// DefaultStatsReceiver returns a receiver over a fresh registry.
func DefaultStatsReceiver() StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry()}
}

// NilStatsReceiver returns a receiver whose instruments discard all updates.
func NilStatsReceiver() StatsReceiver {
	return &nilStatsReceiver{}
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{registry: s.registry, scope: append(append([]string{}, s.scope...), scope...)}
}

func (s *defaultStatsReceiver) Counter(name ...string) metrics.Counter {
	return s.registry.GetOrRegister(s.scoped(name), metrics.NewCounter).(metrics.Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) metrics.Gauge {
	return s.registry.GetOrRegister(s.scoped(name), metrics.NewGauge).(metrics.Gauge)
}

func (s *defaultStatsReceiver) Render() ([]byte, error) {
	snapshot := map[string]interface{}{}
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			snapshot[name] = m.Count()
		case metrics.Gauge:
			snapshot[name] = m.Value()
		}
	})
	return json.Marshal(snapshot)
}

// Instrument names are hierarchical, separated by '/'. Separator characters
// in the elements themselves are stripped rather than rejected.
func (s *defaultStatsReceiver) scoped(name []string) string {
	elems := append(append([]string{}, s.scope...), name...)
	for i, e := range elems {
		elems[i] = strings.Replace(e, "/", "_", -1)
	}
	return strings.Join(elems, "/")
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver    { return s }
func (s *nilStatsReceiver) Counter(name ...string) metrics.Counter { return metrics.NilCounter{} }
func (s *nilStatsReceiver) Gauge(name ...string) metrics.Gauge     { return metrics.NilGauge{} }
func (s *nilStatsReceiver) Render() ([]byte, error)                { return []byte("{}"), nil }
