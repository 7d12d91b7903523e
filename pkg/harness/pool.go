// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eric-ch/ltp/pkg/log"
	"github.com/eric-ch/ltp/pkg/osutil"
	"github.com/eric-ch/ltp/pkg/stat"
)

// readyFdEnv tells a worker which inherited fd to write the readiness byte
// to once its stop handler is installed.
const readyFdEnv = "LTP_READY_FD"

// readyTimeout bounds the wait for a spawned worker to report ready.
const readyTimeout = 10 * time.Second

var (
	statWorkers = stat.New("workers", "worker processes spawned",
		stat.Prometheus("ltp_stress_workers"))
	statAbnormalExits = stat.New("abnormal exits", "workers that did not stop cleanly",
		stat.Prometheus("ltp_stress_abnormal_exits"))
)

// ExitStatus records how one worker process terminated.
type ExitStatus struct {
	ID  int
	PID int
	// Code is the exit code for a normally exited worker.
	Code int
	// Signal is set when the worker was terminated by a signal.
	Signal   syscall.Signal
	Signaled bool
	// Escalated is set when the worker had to be killed because it did not
	// exit within the grace period.
	Escalated bool
	// Err carries the captured worker output. Set only on abnormal exit.
	Err error
}

// Clean reports whether the worker stopped the cooperative way.
// Anything else is evidence of the fault being sought.
func (s ExitStatus) Clean() bool {
	return !s.Signaled && !s.Escalated && s.Code == 0
}

func (s ExitStatus) String() string {
	switch {
	case s.Escalated:
		return "killed after grace period"
	case s.Signaled:
		return fmt.Sprintf("killed by signal %v", s.Signal)
	default:
		return fmt.Sprintf("exit code %v", s.Code)
	}
}

type poolWorker struct {
	id     int
	cmd    *exec.Cmd
	output bytes.Buffer
}

// Pool spawns and reaps the isolated worker processes.
// The worker set is fixed at Spawn, worker count is immutable per run.
type Pool struct {
	stopSignal syscall.Signal
	grace      time.Duration
	workers    []*poolWorker
}

func NewPool(stopSignal syscall.Signal, grace time.Duration) *Pool {
	return &Pool{
		stopSignal: stopSignal,
		grace:      grace,
	}
}

func (p *Pool) Size() int {
	return len(p.workers)
}

// Spawn starts n workers built by command and returns once every one of them
// has confirmed that its stop handler is installed, so that a stop signal
// sent right after Spawn cannot be lost to a worker still starting up.
// Failure to spawn any worker kills the ones already started and fails the
// whole run: a partially spawned pool invalidates the race's worker-count
// assumption.
func (p *Pool) Spawn(n int, command func(id int) *exec.Cmd) error {
	if len(p.workers) != 0 {
		return errors.New("pool is already spawned")
	}
	for i := 0; i < n; i++ {
		if err := p.spawnWorker(i, command(i)); err != nil {
			p.killAll()
			return fmt.Errorf("failed to spawn worker %v: %w", i, err)
		}
		statWorkers.Add(1)
	}
	return nil
}

func (p *Pool) spawnWorker(id int, cmd *exec.Cmd) error {
	readyR, readyW, err := os.Pipe()
	if err != nil {
		return err
	}
	defer readyR.Close()
	w := &poolWorker{id: id, cmd: cmd}
	sink := io.MultiWriter(&w.output, log.VerboseWriter(2))
	if cmd.Stdout == nil {
		cmd.Stdout = sink
	}
	if cmd.Stderr == nil {
		cmd.Stderr = sink
	}
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, fmt.Sprintf("%v=%v", readyFdEnv, 3+len(cmd.ExtraFiles)))
	cmd.ExtraFiles = append(cmd.ExtraFiles, readyW)
	err = cmd.Start()
	readyW.Close()
	if err != nil {
		return err
	}
	if err := waitReady(readyR); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	p.workers = append(p.workers, w)
	return nil
}

func waitReady(r *os.File) error {
	r.SetReadDeadline(time.Now().Add(readyTimeout))
	buf := make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("worker did not report ready: %w", err)
	}
	return nil
}

func (p *Pool) killAll() {
	for _, w := range p.workers {
		w.cmd.Process.Kill()
		w.cmd.Wait()
	}
	p.workers = nil
}

// StopAll signals every worker to stop, then reaps them all, escalating to
// SIGKILL for any worker that has not exited within the grace period.
// The returned statuses are in worker id order.
func (p *Pool) StopAll() []ExitStatus {
	for _, w := range p.workers {
		log.Logf(0, "stopping worker %v (pid %v)...", w.id, w.cmd.Process.Pid)
		if err := w.cmd.Process.Signal(p.stopSignal); err != nil {
			// The worker may have exited on its own already.
			log.Logf(1, "worker %v: stop signal: %v", w.id, err)
		}
	}
	// Reap concurrently so that one hung worker cannot serialize the drain.
	exits := make([]ExitStatus, len(p.workers))
	var g errgroup.Group
	for _, w := range p.workers {
		g.Go(func() error {
			log.Logf(0, "waiting worker %v (pid %v)...", w.id, w.cmd.Process.Pid)
			exits[w.id] = p.reap(w)
			return nil
		})
	}
	g.Wait()
	return exits
}

func (p *Pool) reap(w *poolWorker) ExitStatus {
	status := ExitStatus{ID: w.id, PID: w.cmd.Process.Pid}
	done := make(chan error, 1)
	go func() {
		done <- w.cmd.Wait()
	}()
	select {
	case <-done:
	case <-time.After(p.grace):
		status.Escalated = true
		w.cmd.Process.Kill()
		<-done
	}
	ps := w.cmd.ProcessState
	if sig, signaled := osutil.ProcessTermSignal(ps); signaled {
		status.Signaled = true
		status.Signal = sig
	} else {
		status.Code = osutil.ProcessExitStatus(ps)
	}
	if !status.Clean() {
		statAbnormalExits.Add(1)
		status.Err = &osutil.VerboseError{
			Title:    fmt.Sprintf("worker %v (pid %v): %v", w.id, status.PID, status),
			Output:   w.output.Bytes(),
			ExitCode: status.Code,
		}
	}
	return status
}
