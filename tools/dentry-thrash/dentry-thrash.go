// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

// dentry-thrash stresses a kernel directory-entry list by racing
// open/rename/unlink cycles on a shared tmpfs directory from many worker
// processes. Usage:
//
//	dentry-thrash [-w workers] [-t seconds] [-p priority] [-dir path]
//
// The run passes when every worker stops cleanly, looking for a potential
// corruption of d_subdir in path lookups concurrent with directory entry
// insertion, rename and removal.
package main

import (
	"flag"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/eric-ch/ltp/pkg/harness"
	"github.com/eric-ch/ltp/pkg/log"
	"github.com/eric-ch/ltp/pkg/osutil"
	"github.com/eric-ch/ltp/pkg/stat"
	"github.com/eric-ch/ltp/pkg/tool"
	"github.com/eric-ch/ltp/pkg/workload"
)

var (
	flagWorkers  = flag.Int("w", 15, "number of worker processes")
	flagTimeout  = flag.Int("t", 120, "seconds until the run passes")
	flagPriority = flag.Int("p", 0, "worker priority (nice value)")
	flagDir      = flag.String("dir", "/tmp/dentry-thrash", "base directory to thrash")
	flagMetrics  = flag.String("metrics", "", "serve Prometheus metrics on this address")
	flagWorker   = flag.Int("worker", -1, "run as worker with the given id (internal)")
)

func main() {
	flag.Parse()
	wl := &workload.DentryThrash{
		Dir:   *flagDir,
		Slots: workload.DefaultSlots(),
	}
	if *flagWorker >= 0 {
		os.Exit(harness.WorkerMain(*flagWorker, harness.DefaultStopSignal, wl))
	}
	log.EnableLogCaching(100, 1<<20)
	if *flagMetrics != "" {
		addr, err := stat.ServeMetrics(*flagMetrics)
		if err != nil {
			tool.Fail(err)
		}
		log.Logf(0, "serving metrics on http://%v/metrics", addr)
	}
	bin, err := os.Executable()
	if err != nil {
		tool.Failf("failed to locate own binary: %v", err)
	}
	shutdown := make(chan struct{})
	osutil.HandleInterrupts(shutdown)
	ctl, err := harness.NewController(harness.RunConfig{
		Workers:  *flagWorkers,
		Duration: time.Duration(*flagTimeout) * time.Second,
		Priority: *flagPriority,
		Shutdown: shutdown,
		WorkerCommand: func(id int) *exec.Cmd {
			return osutil.Command(bin,
				"-dir", *flagDir,
				"-worker", strconv.Itoa(id))
		},
	}, wl)
	if err != nil {
		tool.Fail(err)
	}
	rep, err := ctl.Run()
	if err != nil {
		tool.Fail(err)
	}
	if rep.Verdict == harness.Pass {
		log.Logf(0, "run %v: did not compromise dentry lists", rep.RunID)
	} else {
		log.Logf(0, "run %v: FAIL: abnormal worker exits", rep.RunID)
	}
	os.Exit(rep.Verdict.ExitCode())
}
