// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"golang.org/x/sys/unix"
)

// Slot is one pre/post rename name pair within the shared directory.
type Slot struct {
	Pre  string
	Post string
}

// DefaultSlots returns the ten hidden-file slots the workers thrash:
// ".f1" renamed to "f1" and so on.
func DefaultSlots() []Slot {
	slots := make([]Slot, 10)
	for i := range slots {
		post := fmt.Sprintf("f%v", i+1)
		slots[i] = Slot{Pre: "." + post, Post: post}
	}
	return slots
}

// DentryThrash races directory-entry insertion, rename and removal within a
// single shared directory. Each cycle creates one entry under its pre name,
// renames it to the post name and removes whichever name survived, so a cycle
// is net-neutral in isolation while thrashing the dentry list under contention.
type DentryThrash struct {
	Dir   string
	Slots []Slot

	dirfd int
}

// Setup resets the shared directory to a fresh empty state.
// A directory left over from a previous run is removed first.
func (w *DentryThrash) Setup() error {
	if err := w.Teardown(); err != nil {
		return fmt.Errorf("failed to remove stale directory %v: %w", w.Dir, err)
	}
	if err := os.Mkdir(w.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %v: %w", w.Dir, err)
	}
	return nil
}

// Teardown removes any slot files and the directory itself.
// An already-absent directory is not an error.
func (w *DentryThrash) Teardown() error {
	dirfd, err := unix.Open(w.Dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("failed to open directory %v: %w", w.Dir, err)
	}
	// Remove files left by aborted cycles, if any.
	for _, slot := range w.Slots {
		unix.Unlinkat(dirfd, slot.Pre, 0)
		unix.Unlinkat(dirfd, slot.Post, 0)
	}
	unix.Close(dirfd)
	if err := unix.Rmdir(w.Dir); err != nil {
		return fmt.Errorf("failed to remove directory %v: %w", w.Dir, err)
	}
	return nil
}

// Open acquires the directory fd held for the worker's lifetime.
// O_PATH is enough since all operations are dirfd-relative.
func (w *DentryThrash) Open() error {
	dirfd, err := unix.Open(w.Dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC|unix.O_PATH, 0)
	if err != nil {
		return fmt.Errorf("failed to open directory %v: %w", w.Dir, err)
	}
	w.dirfd = dirfd
	return nil
}

func (w *DentryThrash) Cycle(rnd *rand.Rand) error {
	slot := w.Slots[rnd.Intn(len(w.Slots))]
	fd, err := unix.Openat(w.dirfd, slot.Pre, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0644)
	if err != nil {
		return fmt.Errorf("openat %v: %w", slot.Pre, err)
	}
	// Another worker's in-flight cycle may have created the post name
	// already; racing the rename against it is intentional. Whichever name
	// survived gets unlinked, keeping the cycle net-neutral.
	if unix.Renameat(w.dirfd, slot.Pre, w.dirfd, slot.Post) != nil {
		unix.Unlinkat(w.dirfd, slot.Pre, 0)
	} else {
		unix.Unlinkat(w.dirfd, slot.Post, 0)
	}
	unix.Close(fd)
	return nil
}

func (w *DentryThrash) Close() error {
	if w.dirfd > 0 {
		unix.Close(w.dirfd)
		w.dirfd = 0
	}
	return nil
}
