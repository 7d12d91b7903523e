// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package workload

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ioctlCall struct {
	Req uint
	Val int
}

func TestNewVTChurn(t *testing.T) {
	w := NewVTChurn(8)
	assert.Equal(t, 8, w.Port)
	assert.Equal(t, "/dev/tty8", w.Path)
}

func TestCycleSweep(t *testing.T) {
	var calls []ioctlCall
	w := NewVTChurn(8)
	w.ioctl = func(fd int, req uint, val int) error {
		calls = append(calls, ioctlCall{req, val})
		return nil
	}
	require.NoError(t, w.Cycle(nil))
	var want []ioctlCall
	for i := 8; i < MaxConsoles; i++ {
		want = append(want, ioctlCall{vtActivate, i}, ioctlCall{vtDisallocate, i})
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("sweep mismatch (-want +got):\n%v", diff)
	}
}

func TestCycleIgnoresRequestErrors(t *testing.T) {
	w := NewVTChurn(60)
	w.ioctl = func(fd int, req uint, val int) error {
		return assert.AnError
	}
	// Churn is the goal, individual request failures are irrelevant.
	assert.NoError(t, w.Cycle(nil))
}

func TestTeardownMissingDevice(t *testing.T) {
	w := NewVTChurn(8)
	w.Path = "/dev/nonexistent-console-for-test"
	assert.NoError(t, w.Teardown())
}

func TestSetupMissingDevice(t *testing.T) {
	w := NewVTChurn(8)
	w.Path = "/dev/nonexistent-console-for-test"
	assert.Error(t, w.Setup())
}
