// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eric-ch/ltp/pkg/tool"
)

// Verdict classifies a completed run.
type Verdict int

const (
	Pass Verdict = iota
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// ExitCode maps the verdict to the process exit code understood by the
// invoking test harness. Broken runs never produce a Verdict, they abort
// through tool.Failf instead.
func (v Verdict) ExitCode() int {
	if v == Pass {
		return tool.ExitPass
	}
	return tool.ExitFail
}

// Report is the outcome of one full controller run.
type Report struct {
	// RunID makes progress lines of interleaved runs attributable in CI logs.
	RunID   uuid.UUID
	Verdict Verdict
	// Elapsed is the measured length of the RUNNING phase.
	Elapsed time.Duration
	// Exits records how every worker terminated, in worker id order.
	// Empty in the single-loop mode.
	Exits []ExitStatus
	// Cycles is the number of workload cycles executed in the single-loop
	// mode. Zero in the pool mode, where cycles happen in worker processes.
	Cycles int
	// CleanupErr records a best-effort teardown failure. It does not change
	// the verdict but affects repeatability, so it is surfaced as a warning.
	CleanupErr error
}
