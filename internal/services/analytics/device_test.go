package analytics

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeRooted(t *testing.T) {
	assert.Equal(t, "true", probeRooted(func() int { return 0 }))
	assert.Equal(t, "false", probeRooted(func() int { return 1000 }))
	assert.Equal(t, unknown, probeRooted(func() int { return -1 }))
}

func TestProbeContainer(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"marker present", nil, "true"},
		{"marker absent", fs.ErrNotExist, "false"},
		{"probe failed", errors.New("permission denied"), unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := probeContainer(func(string) (os.FileInfo, error) { return nil, tt.err })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectDeviceInfo(t *testing.T) {
	info := CollectDeviceInfo()
	assert.NotEmpty(t, info.PlatformVersion)
	assert.NotEmpty(t, info.Model)
	assert.NotEmpty(t, info.Rooted)
	assert.NotEmpty(t, info.IsSimulator)
}
