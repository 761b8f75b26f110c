package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ExitStatus(t *testing.T) {
	tests := []struct {
		name string
		args func(dir string) []string
		want int
	}{
		{
			name: "invalid configuration",
			args: func(string) []string { return []string{"-env", "qa"} },
			want: 2,
		},
		{
			name: "application cannot start",
			args: func(dir string) []string {
				return []string{"-addr", "256.0.0.1:bad", "-grpc", "1", "-db", filepath.Join(dir, "vulnmanager.db")}
			},
			want: 1,
		},
		{
			name: "storage cannot be opened",
			args: func(dir string) []string {
				return []string{"-db", filepath.Join(dir, "missing", "\x00", "vulnmanager.db")}
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args(t.TempDir())))
		})
	}
}
