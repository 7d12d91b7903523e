// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides functionality similar to standard log package with some extensions:
//   - verbosity levels
//   - global verbosity setting shared by all packages
//   - ability to cache recent output in memory, so that a broken run can
//     attach its recent output to the report
package log

import (
	"bytes"
	"flag"
	"fmt"
	golog "log"
	"sync"
	"time"
)

var (
	flagV = flag.Int("vv", 0, "verbosity")

	mu          sync.Mutex
	cache       *ringCache
	prependTime = true // for testing
)

// ringCache keeps the most recent low-verbosity lines in a fixed ring,
// bounded both by line count and by total memory.
type ringCache struct {
	entries []string
	pos     int
	mem     int
	maxMem  int
}

func (c *ringCache) add(s string) {
	c.mem -= len(c.entries[c.pos])
	c.entries[c.pos] = s
	c.mem += len(s)
	c.pos++
	if c.pos == len(c.entries) {
		c.pos = 0
	}
	for i := 0; i < len(c.entries)-1 && c.mem > c.maxMem; i++ {
		pos := (c.pos + i) % len(c.entries)
		c.mem -= len(c.entries[pos])
		c.entries[pos] = ""
	}
}

func (c *ringCache) dump() string {
	buf := new(bytes.Buffer)
	for i := range c.entries {
		pos := (c.pos + i) % len(c.entries)
		if c.entries[pos] == "" {
			continue
		}
		buf.WriteString(c.entries[pos])
		buf.WriteByte('\n')
	}
	return buf.String()
}

// EnableLogCaching enables in memory caching of log output.
// Caches up to maxLines, but no more than maxMem bytes.
// Cached output can later be queried with CachedLogOutput.
func EnableLogCaching(maxLines, maxMem int) {
	mu.Lock()
	defer mu.Unlock()
	if cache != nil {
		Fatalf("log caching is already enabled")
	}
	if maxLines < 1 || maxMem < 1 {
		panic("invalid maxLines/maxMem")
	}
	cache = &ringCache{
		entries: make([]string, maxLines),
		maxMem:  maxMem,
	}
}

// CachedLogOutput retrieves cached log output.
func CachedLogOutput() string {
	mu.Lock()
	defer mu.Unlock()
	if cache == nil {
		return ""
	}
	return cache.dump()
}

func Logf(v int, msg string, args ...interface{}) {
	mu.Lock()
	doLog := v <= *flagV
	if cache != nil && v <= 1 {
		timeStr := ""
		if prependTime {
			timeStr = time.Now().Format("2006/01/02 15:04:05 ")
		}
		cache.add(fmt.Sprintf(timeStr+msg, args...))
	}
	mu.Unlock()

	if doLog {
		golog.Printf(msg, args...)
	}
}

func Fatal(err error) {
	golog.Fatal(err)
}

func Fatalf(msg string, args ...interface{}) {
	golog.Fatalf(msg, args...)
}

// VerboseWriter is an io.Writer that forwards everything to Logf
// with the given verbosity. Used to pipe worker process output.
type VerboseWriter int

func (w VerboseWriter) Write(data []byte) (int, error) {
	Logf(int(w), "%s", data)
	return len(data), nil
}
