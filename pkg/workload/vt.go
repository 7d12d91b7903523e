// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package workload

import (
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sys/unix"
)

// From linux/vt.h.
const (
	vtActivate    = 0x5606 // VT_ACTIVATE
	vtDisallocate = 0x5608 // VT_DISALLOCATE
	// MaxConsoles is MAX_NR_CONSOLES, the end of the sweep range.
	MaxConsoles = 63
)

// VTChurn rapidly activates and deallocates virtual consoles to churn the
// console allocation state. One cycle sweeps every console from Port up to
// MaxConsoles, issuing VT_ACTIVATE followed by VT_DISALLOCATE and ignoring
// the result of each individual request. Rapid state churn is the goal, not
// correctness of any single request.
type VTChurn struct {
	Port int
	Path string

	fd    int
	ioctl func(fd int, req uint, val int) error
}

// NewVTChurn returns a churn workload sweeping consoles [port, MaxConsoles)
// through /dev/tty<port>.
func NewVTChurn(port int) *VTChurn {
	return &VTChurn{
		Port:  port,
		Path:  fmt.Sprintf("/dev/tty%v", port),
		fd:    -1,
		ioctl: unix.IoctlSetInt,
	}
}

// Setup verifies the console device exists. A system without virtual
// consoles is an environment error, not a test failure.
func (w *VTChurn) Setup() error {
	if err := unix.Access(w.Path, unix.F_OK); err != nil {
		return fmt.Errorf("console %v is not available: %w", w.Path, err)
	}
	return nil
}

// Teardown deallocates the whole sweep range in case a run bailed mid-way
// with consoles still allocated. An absent device is not an error.
func (w *VTChurn) Teardown() error {
	fd, err := unix.Open(w.Path, unix.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("failed to open %v: %w", w.Path, err)
	}
	for i := w.Port; i < MaxConsoles; i++ {
		w.ioctl(fd, vtDisallocate, i)
	}
	unix.Close(fd)
	return nil
}

func (w *VTChurn) Open() error {
	fd, err := unix.Open(w.Path, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %v: %w", w.Path, err)
	}
	w.fd = fd
	return nil
}

func (w *VTChurn) Cycle(rnd *rand.Rand) error {
	for i := w.Port; i < MaxConsoles; i++ {
		w.ioctl(w.fd, vtActivate, i)
		w.ioctl(w.fd, vtDisallocate, i)
	}
	return nil
}

func (w *VTChurn) Close() error {
	if w.fd >= 0 {
		unix.Close(w.fd)
		w.fd = -1
	}
	return nil
}

var _ Workload = new(VTChurn)
var _ Resource = new(VTChurn)
var _ Workload = new(DentryThrash)
var _ Resource = new(DentryThrash)
