// Copyright 2026 ltp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package log

import (
	"testing"
)

func init() {
	EnableLogCaching(4, 20)
}

func TestCaching(t *testing.T) {
	tests := []struct{ str, want string }{
		{"", ""},
		{"w", "w\n"},
		{"xx", "w\nxx\n"},
		{"yyy", "w\nxx\nyyy\n"},
		{"zzzz", "w\nxx\nyyy\nzzzz\n"},
		{"aaaaa", "xx\nyyy\nzzzz\naaaaa\n"},
		{"bbbbbb", "yyy\nzzzz\naaaaa\nbbbbbb\n"},
		{"ccccccc", "aaaaa\nbbbbbb\nccccccc\n"},
		{"dddddddd", "ccccccc\ndddddddd\n"},
		{"eeeeeeeeeeeeeeeeeeeeeeeee", "eeeeeeeeeeeeeeeeeeeeeeeee\n"},
	}
	prependTime = false
	for _, test := range tests {
		Logf(1, "%s", test.str)
		out := CachedLogOutput()
		if out != test.want {
			t.Fatalf("wrote: %v\nwant: %v\ngot: %v", test.str, test.want, out)
		}
	}
}
