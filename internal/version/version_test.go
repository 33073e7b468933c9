/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package version

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.3.1", "0.3.1", 0},
		{"v0.3.1", "0.3.1", 0},
		{"0.3.0", "0.3.1", -1},
		{"0.3.1", "0.3.0", 1},
		{"0.9.9", "1.0.0", -1},
		{"1.2", "1.2.0", 0},
		{"2.0.0", "v1.9.9", 1},
	}
	for _, tc := range tests {
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTruncateNotes(t *testing.T) {
	if got := truncateNotes("first line\nsecond line", 100); got != "first line" {
		t.Errorf("truncateNotes() = %q, want first line only", got)
	}

	long := "aaaaaaaaaaaaaaaaaaaa"
	if got := truncateNotes(long, 10); got != "aaaaaaa..." {
		t.Errorf("truncateNotes() = %q, want 10-char ellipsis form", got)
	}
}
