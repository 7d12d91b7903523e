// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"errors"
	"math/rand"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countWorkload counts its cycles and optionally fails every failEvery-th one.
type countWorkload struct {
	cycles    atomic.Int64
	failEvery int64
	opened    bool
	closed    bool
	openErr   error
}

func (w *countWorkload) Open() error {
	w.opened = true
	return w.openErr
}

func (w *countWorkload) Cycle(rnd *rand.Rand) error {
	n := w.cycles.Add(1)
	time.Sleep(100 * time.Microsecond)
	if w.failEvery != 0 && n%w.failEvery == 0 {
		return errors.New("transient cycle failure")
	}
	return nil
}

func (w *countWorkload) Close() error {
	w.closed = true
	return nil
}

func TestStopToken(t *testing.T) {
	token := new(StopToken)
	assert.False(t, token.Stopped())
	token.Stop()
	assert.True(t, token.Stopped())
}

func TestInstallStopSignal(t *testing.T) {
	token := InstallStopSignal(syscall.SIGUSR2)
	assert.False(t, token.Stopped())
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	require.Eventually(t, token.Stopped, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerMainStops(t *testing.T) {
	wl := new(countWorkload)
	done := make(chan int, 1)
	go func() {
		done <- WorkerMain(0, syscall.SIGUSR2, wl)
	}()
	// Let the loop install its handler and execute a few cycles.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("worker loop did not observe the stop signal")
	}
	assert.True(t, wl.opened)
	assert.True(t, wl.closed)
	assert.Greater(t, wl.cycles.Load(), int64(0))
}

func TestWorkerMainTransientFailures(t *testing.T) {
	wl := &countWorkload{failEvery: 3}
	done := make(chan int, 1)
	go func() {
		done <- WorkerMain(0, syscall.SIGUSR2, wl)
	}()
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	select {
	case code := <-done:
		// Failed cycles are abandoned, the worker still stops cleanly.
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("worker loop did not observe the stop signal")
	}
}

func TestWorkerMainOpenFailure(t *testing.T) {
	wl := &countWorkload{openErr: errors.New("no such directory")}
	code := WorkerMain(0, syscall.SIGUSR2, wl)
	assert.Equal(t, 2, code)
	assert.Equal(t, int64(0), wl.cycles.Load())
}
