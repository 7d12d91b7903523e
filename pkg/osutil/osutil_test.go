// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package osutil

import (
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPdeathsig(t *testing.T) {
	cmd := Command("/bin/true")
	require.NotNil(t, cmd.SysProcAttr)
	assert.Equal(t, syscall.SIGKILL, cmd.SysProcAttr.Pdeathsig)
}

func TestProcessExitStatus(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 3")
	err := cmd.Run()
	require.Error(t, err)
	assert.Equal(t, 3, ProcessExitStatus(cmd.ProcessState))
	_, signaled := ProcessTermSignal(cmd.ProcessState)
	assert.False(t, signaled)
}

func TestProcessTermSignal(t *testing.T) {
	cmd := exec.Command("/bin/sleep", "60")
	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Process.Kill())
	cmd.Wait()
	sig, signaled := ProcessTermSignal(cmd.ProcessState)
	require.True(t, signaled)
	assert.Equal(t, syscall.SIGKILL, sig)
}

func TestFileHelpers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, MkdirAll(dir))
	file := filepath.Join(dir, "f")
	assert.False(t, IsExist(file))
	require.NoError(t, WriteFile(file, []byte("data")))
	assert.True(t, IsExist(file))
}
