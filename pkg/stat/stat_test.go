// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package stat

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVal(t *testing.T) {
	s := newSet()
	v := s.New("cycles", "number of cycles")
	assert.Equal(t, 0, v.Val())
	v.Add(3)
	v.Add(4)
	assert.Equal(t, 7, v.Val())
}

func TestExternal(t *testing.T) {
	s := newSet()
	val := 42
	v := s.New("external", "external value", func() int { return val })
	assert.Equal(t, 42, v.Val())
	val = 43
	assert.Equal(t, 43, v.Val())
	assert.Panics(t, func() { v.Add(1) })
}

func TestCollect(t *testing.T) {
	s := newSet()
	s.New("b metric", "b").Add(2)
	s.New("a metric", "a").Add(1)
	got := s.Collect()
	assert.Equal(t, []UI{
		{Name: "a metric", Desc: "a", Value: 1},
		{Name: "b metric", Desc: "b", Value: 2},
	}, got)
}

func TestServeMetrics(t *testing.T) {
	addr, err := ServeMetrics("127.0.0.1:0")
	require.NoError(t, err)
	resp, err := http.Get(fmt.Sprintf("http://%v/metrics", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# HELP")
}
