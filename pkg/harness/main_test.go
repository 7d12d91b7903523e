// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package harness

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/eric-ch/ltp/pkg/osutil"
	"github.com/eric-ch/ltp/pkg/workload"
)

// The test binary doubles as the worker binary: spawning it with
// HARNESS_TEST_MODE set turns it into one of the worker flavors below
// instead of running the tests.
func TestMain(m *testing.M) {
	switch mode := os.Getenv("HARNESS_TEST_MODE"); mode {
	case "":
		os.Exit(m.Run())
	case "worker":
		os.Exit(WorkerMain(helperID(), syscall.SIGUSR1, new(nopWorkload)))
	case "dentry":
		wl := &workload.DentryThrash{
			Dir:   os.Getenv("HARNESS_TEST_DIR"),
			Slots: workload.DefaultSlots(),
		}
		os.Exit(WorkerMain(helperID(), syscall.SIGUSR1, wl))
	case "crash":
		// Simulates a worker taken down by a fault signal mid-run.
		signalReady()
		fmt.Println("thrashing the directory")
		time.Sleep(100 * time.Millisecond)
		syscall.Kill(os.Getpid(), syscall.SIGKILL)
	case "stubborn":
		// Never observes the stop signal, forcing grace escalation.
		signal.Ignore(syscall.SIGUSR1)
		signalReady()
		// A bare select{} would trip the runtime deadlock detector and
		// kill the process before the grace period elapses.
		for {
			time.Sleep(time.Hour)
		}
	case "earlyexit":
		// Dies before reporting readiness.
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown test mode %q\n", mode)
		os.Exit(3)
	}
}

func helperID() int {
	id, _ := strconv.Atoi(os.Getenv("HARNESS_TEST_ID"))
	return id
}

func helperCommand(t *testing.T, mode string, id int) *exec.Cmd {
	cmd := osutil.Command(os.Args[0])
	cmd.Env = append(os.Environ(),
		"HARNESS_TEST_MODE="+mode,
		fmt.Sprintf("HARNESS_TEST_ID=%v", id))
	return cmd
}

// nopWorkload cycles without touching any kernel resource.
type nopWorkload struct{}

func (*nopWorkload) Open() error { return nil }

func (*nopWorkload) Cycle(rnd *rand.Rand) error {
	time.Sleep(100 * time.Microsecond)
	return nil
}

func (*nopWorkload) Close() error { return nil }
