// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

// vt-churn rapidly activates and deallocates virtual consoles to churn the
// console allocation state that systemd-udevd reacts to. Usage:
//
//	vt-churn [-t seconds | -r repeats] [-port first-console]
//
// A single synchronous loop, no worker pool: each sweep walks every console
// from the port offset up to MAX_NR_CONSOLES issuing VT_ACTIVATE followed by
// VT_DISALLOCATE, ignoring individual request failures.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/eric-ch/ltp/pkg/harness"
	"github.com/eric-ch/ltp/pkg/log"
	"github.com/eric-ch/ltp/pkg/osutil"
	"github.com/eric-ch/ltp/pkg/stat"
	"github.com/eric-ch/ltp/pkg/tool"
	"github.com/eric-ch/ltp/pkg/workload"
)

var (
	flagTimeout = flag.Int("t", 0, "seconds to churn (0 means use -r)")
	flagRepeat  = flag.Int("r", 1, "number of sweeps")
	flagPort    = flag.Int("port", 8, "first console to sweep")
	flagMetrics = flag.String("metrics", "", "serve Prometheus metrics on this address")
)

func main() {
	flag.Parse()
	log.EnableLogCaching(100, 1<<20)
	if *flagMetrics != "" {
		addr, err := stat.ServeMetrics(*flagMetrics)
		if err != nil {
			tool.Fail(err)
		}
		log.Logf(0, "serving metrics on http://%v/metrics", addr)
	}
	wl := workload.NewVTChurn(*flagPort)
	shutdown := make(chan struct{})
	osutil.HandleInterrupts(shutdown)
	cfg := harness.RunConfig{
		Workload: wl,
		Shutdown: shutdown,
	}
	if *flagTimeout > 0 {
		cfg.Duration = time.Duration(*flagTimeout) * time.Second
	} else {
		cfg.Repeat = *flagRepeat
	}
	ctl, err := harness.NewController(cfg, wl)
	if err != nil {
		tool.Fail(err)
	}
	rep, err := ctl.Run()
	if err != nil {
		tool.Fail(err)
	}
	log.Logf(0, "run %v: %v sweeps in %v", rep.RunID, rep.Cycles, rep.Elapsed)
	if rep.Verdict == harness.Pass {
		log.Logf(0, "run %v: did not compromise console lists", rep.RunID)
	}
	os.Exit(rep.Verdict.ExitCode())
}
