// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package workload implements the racy operation cycles that the stress
// harness drives against a shared kernel resource.
package workload

import (
	"math/rand"
)

// Workload performs one racy operation cycle per call against a shared
// kernel-managed resource. Implementations are exercised concurrently by many
// worker processes with no synchronization, that absence is the point.
type Workload interface {
	// Open acquires handles held for the whole lifetime of the calling worker.
	Open() error
	// Cycle performs one operation cycle. A returned error is transient:
	// the caller abandons this cycle and keeps looping.
	Cycle(rnd *rand.Rand) error
	// Close releases handles acquired by Open.
	Close() error
}

// Resource is the kernel-managed namespace the workers race on. Setup and
// Teardown both tolerate an already-absent resource so that repeated runs
// start from identical state.
type Resource interface {
	Setup() error
	Teardown() error
}
