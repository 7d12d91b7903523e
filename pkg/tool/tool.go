// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains helpers for implementation of the command line tools.
package tool

import (
	"fmt"
	"os"

	"github.com/eric-ch/ltp/pkg/log"
)

// Exit codes understood by the invoking test harness.
const (
	ExitPass   = 0 // run completed, no corruption observed
	ExitFail   = 1 // run completed, failure evidence recorded
	ExitBroken = 2 // setup/environment error, no verdict produced
)

// Failf reports a setup or environment error and exits with ExitBroken.
// A broken run is distinct from a test failure.
func Failf(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(ExitBroken)
}

// Fail reports a broken run, attaching recent cached log output when the
// tool enabled log caching.
func Fail(err error) {
	Failf("%v", brokenMessage(err))
}

func brokenMessage(err error) string {
	if cached := log.CachedLogOutput(); cached != "" {
		return fmt.Sprintf("%v\nrecent output:\n%v", err, cached)
	}
	return err.Error()
}
