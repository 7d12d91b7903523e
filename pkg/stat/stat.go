// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package stat provides prometheus/streamz style metrics (Val type) for
// instrumenting the stress loops, plus a registry for such metrics and a
// process-global default registry.
//
// Simple uses of metrics:
//
//	statFoo := stat.New("metric name", "metric description")
//	statFoo.Add(1)
package stat

import (
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type UI struct {
	Name  string
	Desc  string
	Value int
}

func New(name, desc string, opts ...any) *Val {
	return global.New(name, desc, opts...)
}

func Collect() []UI {
	return global.Collect()
}

var global = newSet()

// ServeMetrics exposes all metrics registered with the Prometheus option
// over HTTP at /metrics, serving in the background.
// It returns the bound address, useful with a ":0" listen address.
func ServeMetrics(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %v: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.Serve(ln, mux)
	return ln.Addr(), nil
}

type set struct {
	mu   sync.Mutex
	vals map[string]*Val
}

func newSet() *set {
	return &set{
		vals: make(map[string]*Val),
	}
}

// Additional options for Val metrics.

// Prometheus exports the metric to Prometheus under the given name.
type Prometheus string

// Additionally a custom 'func() int' can be passed to read the metric value
// from the function.

func (s *set) New(name, desc string, opts ...any) *Val {
	v := &Val{
		name: name,
		desc: desc,
	}
	for _, o := range opts {
		switch opt := o.(type) {
		case func() int:
			v.ext = opt
		case Prometheus:
			// Prometheus Instrumentation https://prometheus.io/docs/guides/go-application.
			prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: string(opt),
				Help: desc,
			},
				func() float64 { return float64(v.Val()) },
			))
		default:
			panic(fmt.Sprintf("unknown stats option %#v", o))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name] = v
	return v
}

func (s *set) Collect() []UI {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []UI
	for _, v := range s.vals {
		res = append(res, UI{
			Name:  v.name,
			Desc:  v.desc,
			Value: v.Val(),
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res
}

type Val struct {
	name string
	desc string
	val  atomic.Uint64
	ext  func() int
}

func (v *Val) Add(val int) {
	if v.ext != nil {
		panic(fmt.Sprintf("stat %v is in external mode", v.name))
	}
	v.val.Add(uint64(val))
}

func (v *Val) Val() int {
	if v.ext != nil {
		return v.ext()
	}
	return int(v.val.Load())
}
