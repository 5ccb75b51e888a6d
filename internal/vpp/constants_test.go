package vpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		offset int64
		want   int64
	}{
		{0, 0},
		{1, 2048},
		{2047, 2048},
		{2048, 2048},
		{2049, 4096},
		{4101, 6144},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Align(tt.offset, SectorSize), "Align(%d)", tt.offset)
	}
}

func TestEstimateHeaderSize(t *testing.T) {
	tests := []struct {
		name    string
		entries int
		want    int64
	}{
		{name: "empty directory", entries: 0, want: 2048},
		{name: "single entry", entries: 1, want: 4096},
		{name: "directory fills exactly one sector", entries: 64, want: 4096},
		{name: "directory spills into next sector", entries: 65, want: 6144},
		{name: "large directory", entries: 1000, want: 34816},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateHeaderSize(tt.entries)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, got%SectorSize, "data region must start on a sector boundary")
		})
	}
}
