// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/eric-ch/ltp/pkg/workload"
)

const (
	// DefaultGrace bounds the wait for a worker after its stop signal
	// before escalating to SIGKILL.
	DefaultGrace = 5 * time.Second
	// DefaultStopSignal asks a worker to finish its current cycle and exit.
	DefaultStopSignal = syscall.SIGUSR1
)

// RunConfig describes one stress run. Immutable once the run starts.
type RunConfig struct {
	// Workers is the number of worker processes racing on the shared
	// resource. Zero selects the single-loop mode with no pool at all.
	Workers int
	// Duration bounds the RUNNING phase against a monotonic clock.
	Duration time.Duration
	// Repeat is the cycle count for the single-loop mode. Ignored when
	// Duration is set.
	Repeat int
	// Priority is the nice value applied to the run before spawning,
	// inherited by the workers. Zero leaves the priority untouched.
	Priority int
	// WorkerCommand builds the command starting worker id, typically a
	// re-execution of the current binary in worker mode. Required when
	// Workers > 0.
	WorkerCommand func(id int) *exec.Cmd
	// Workload is the cycle executed by the single-loop mode. Required when
	// Workers == 0.
	Workload workload.Workload
	// StopSignal and Grace control the cooperative shutdown of workers.
	StopSignal syscall.Signal
	Grace      time.Duration
	// Shutdown, when closed, cuts the RUNNING phase short.
	Shutdown <-chan struct{}
}

func (cfg *RunConfig) validate() error {
	if cfg.Workers < 0 {
		return fmt.Errorf("invalid workers count %v", cfg.Workers)
	}
	if cfg.Priority < -20 || cfg.Priority > 19 {
		return fmt.Errorf("invalid priority %v, want [-20, 19]", cfg.Priority)
	}
	if cfg.Workers > 0 {
		if cfg.WorkerCommand == nil {
			return fmt.Errorf("no worker command")
		}
		if cfg.Duration <= 0 {
			return fmt.Errorf("invalid run duration %v", cfg.Duration)
		}
	} else {
		if cfg.Workload == nil {
			return fmt.Errorf("no workload for single-loop mode")
		}
		if cfg.Duration <= 0 && cfg.Repeat <= 0 {
			return fmt.Errorf("single-loop mode needs a duration or a repeat count")
		}
	}
	if cfg.StopSignal == 0 {
		cfg.StopSignal = DefaultStopSignal
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	return nil
}
