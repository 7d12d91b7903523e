// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

// Package harness drives a kernel subsystem into a high-contention state by
// running many isolated worker processes that race on a shared resource for a
// bounded time window, then stops them cooperatively and reports whether the
// window completed without observable failure.
package harness

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/eric-ch/ltp/pkg/log"
	"github.com/eric-ch/ltp/pkg/osutil"
	"github.com/eric-ch/ltp/pkg/stat"
	"github.com/eric-ch/ltp/pkg/workload"
)

// State of a run. Transitions are strictly sequential, no branching back.
type State int

const (
	StateUninitialized State = iota
	StateReady                // shared resource created
	StateRunning              // pool spawned (or single loop started)
	StateStopping             // stop signals sent
	StateDrained              // all workers reaped
	StateReported             // verdict emitted
	StateTornDown             // shared resource removed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateDrained:
		return "drained"
	case StateReported:
		return "reported"
	case StateTornDown:
		return "torn down"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Controller orchestrates one run: resource setup, pool spawn, the bounded
// wait, cooperative shutdown and unconditional teardown.
type Controller struct {
	cfg      RunConfig
	resource workload.Resource
	pool     *Pool
	state    State
}

func NewController(cfg RunConfig, resource workload.Resource) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg,
		resource: resource,
	}
	if cfg.Workers > 0 {
		c.pool = NewPool(cfg.StopSignal, cfg.Grace)
	}
	return c, nil
}

func (c *Controller) State() State {
	return c.state
}

// Run drives the full state machine and returns the run report.
// A non-nil error means the run was broken by a setup or spawn failure and no
// verdict was produced. Teardown runs regardless of how far the run got.
func (c *Controller) Run() (rep *Report, err error) {
	rep = &Report{RunID: uuid.New()}
	defer func() {
		// Cleanup is unconditional on the exit path and best-effort.
		if terr := c.resource.Teardown(); terr != nil {
			log.Logf(0, "warning: failed to tear down shared resource: %v", terr)
			if rep != nil {
				rep.CleanupErr = terr
			}
		}
		c.state = StateTornDown
	}()
	if err := c.resource.Teardown(); err != nil {
		return nil, fmt.Errorf("failed to pre-clean shared resource: %w", err)
	}
	if err := c.resource.Setup(); err != nil {
		return nil, fmt.Errorf("failed to set up shared resource: %w", err)
	}
	c.state = StateReady
	if c.cfg.Priority != 0 {
		if perr := osutil.SetPriority(c.cfg.Priority); perr != nil {
			return nil, fmt.Errorf("failed to set priority %v: %w", c.cfg.Priority, perr)
		}
	}
	if c.cfg.Workers == 0 {
		return c.runSingle(rep)
	}
	return c.runPool(rep)
}

func (c *Controller) runPool(rep *Report) (*Report, error) {
	log.Logf(0, "run %v: spawning %v workers", rep.RunID, c.cfg.Workers)
	if err := c.pool.Spawn(c.cfg.Workers, c.cfg.WorkerCommand); err != nil {
		return nil, err
	}
	c.state = StateRunning
	start := time.Now() // the monotonic reading bounds the window
	select {
	case <-time.After(c.cfg.Duration):
	case <-c.cfg.Shutdown:
		log.Logf(0, "run %v: interrupted, stopping early", rep.RunID)
	}
	rep.Elapsed = time.Since(start)
	c.state = StateStopping
	exits := c.pool.StopAll()
	c.state = StateDrained
	rep.Exits = exits
	rep.Verdict = Pass
	for _, e := range exits {
		if !e.Clean() {
			log.Logf(0, "%v", e.Err)
			rep.Verdict = Fail
		}
	}
	c.state = StateReported
	logStats()
	return rep, nil
}

func logStats() {
	for _, s := range stat.Collect() {
		log.Logf(1, "stat %v: %v", s.Name, s.Value)
	}
}

// runSingle is the degenerate no-pool mode: one synchronous loop in the
// controller process, no signals, no spawn.
func (c *Controller) runSingle(rep *Report) (*Report, error) {
	wl := c.cfg.Workload
	if err := wl.Open(); err != nil {
		return nil, fmt.Errorf("failed to open workload: %w", err)
	}
	defer wl.Close()
	c.state = StateRunning
	rnd := rand.New(rand.NewSource(int64(os.Getpid())))
	start := time.Now()
	cycle := func() {
		if err := wl.Cycle(rnd); err != nil {
			statCycleFailures.Add(1)
		} else {
			statCycles.Add(1)
		}
		rep.Cycles++
	}
	if c.cfg.Duration > 0 {
		for time.Since(start) < c.cfg.Duration {
			cycle()
			select {
			case <-c.cfg.Shutdown:
				log.Logf(0, "run %v: interrupted, stopping early", rep.RunID)
				return c.reportSingle(rep, start), nil
			default:
			}
		}
	} else {
		for i := 0; i < c.cfg.Repeat; i++ {
			cycle()
			select {
			case <-c.cfg.Shutdown:
				log.Logf(0, "run %v: interrupted, stopping early", rep.RunID)
				return c.reportSingle(rep, start), nil
			default:
			}
		}
	}
	return c.reportSingle(rep, start), nil
}

func (c *Controller) reportSingle(rep *Report, start time.Time) *Report {
	rep.Elapsed = time.Since(start)
	// No workers to stop or drain, the states pass through trivially.
	c.state = StateStopping
	c.state = StateDrained
	rep.Verdict = Pass
	c.state = StateReported
	logStats()
	return rep
}
