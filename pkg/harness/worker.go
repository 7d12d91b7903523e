// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"

	"github.com/eric-ch/ltp/pkg/log"
	"github.com/eric-ch/ltp/pkg/stat"
	"github.com/eric-ch/ltp/pkg/workload"
)

var (
	statCycles = stat.New("cycles", "workload cycles executed",
		stat.Prometheus("ltp_stress_cycles"))
	statCycleFailures = stat.New("cycle failures", "transient workload cycle failures",
		stat.Prometheus("ltp_stress_cycle_failures"))
)

// StopToken is a per-process cooperative cancellation flag. It is set
// asynchronously when the stop signal arrives and polled by the worker loop
// between cycles. Each worker is its own process, so the token has no
// cross-worker visibility by construction.
type StopToken struct {
	flag atomic.Bool
}

func (t *StopToken) Stop()         { t.flag.Store(true) }
func (t *StopToken) Stopped() bool { return t.flag.Load() }

// InstallStopSignal installs sig as the stop signal for the current process.
// The signal goroutine does nothing beyond flipping the token.
func InstallStopSignal(sig os.Signal) *StopToken {
	t := new(StopToken)
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig)
	go func() {
		<-c
		t.Stop()
	}()
	return t
}

// signalReady writes the readiness byte telling the spawning pool that the
// stop handler is installed. No-op when the process was not started by a Pool.
func signalReady() {
	fdStr := os.Getenv(readyFdEnv)
	if fdStr == "" {
		return
	}
	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), "ready")
	if f == nil {
		return
	}
	f.Write([]byte{1})
	f.Close()
}

// WorkerMain is the entry point of a worker process. It installs the stop
// signal, seeds randomness from its own pid so concurrent workers explore
// different slot sequences, and runs workload cycles until told to stop.
// The returned value is the worker's process exit status: 0 for a clean
// stop, nonzero when the workload could not be opened.
func WorkerMain(id int, sig os.Signal, wl workload.Workload) int {
	token := InstallStopSignal(sig)
	signalReady()
	rnd := rand.New(rand.NewSource(int64(os.Getpid())))
	if err := wl.Open(); err != nil {
		log.Logf(0, "worker %v: %v", id, err)
		return 2
	}
	defer wl.Close()
	for !token.Stopped() {
		// A failed cycle is abandoned, not the worker.
		if err := wl.Cycle(rnd); err != nil {
			statCycleFailures.Add(1)
			continue
		}
		statCycles.Add(1)
	}
	log.Logf(1, "worker %v: %v cycles, %v transient failures",
		id, statCycles.Val(), statCycleFailures.Val())
	return 0
}
