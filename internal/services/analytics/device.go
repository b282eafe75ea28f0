package analytics

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strconv"
)

const unknown = "Unknown"

// DeviceInfo holds host facts reported in analytics metadata
type DeviceInfo struct {
	PlatformVersion string
	Manufacturer    string
	Model           string
	Rooted          string
	IsSimulator     string
}

// CollectDeviceInfo probes the host. Probes that cannot answer report "Unknown".
func CollectDeviceInfo() DeviceInfo {
	return DeviceInfo{
		PlatformVersion: runtime.Version(),
		Manufacturer:    runtime.GOOS,
		Model:           runtime.GOOS + "/" + runtime.GOARCH,
		Rooted:          probeRooted(os.Geteuid),
		IsSimulator:     probeContainer(os.Stat),
	}
}

// Geteuid reports -1 on platforms without user ids
func probeRooted(geteuid func() int) string {
	uid := geteuid()
	if uid < 0 {
		return unknown
	}
	return strconv.FormatBool(uid == 0)
}

func probeContainer(stat func(string) (os.FileInfo, error)) string {
	_, err := stat("/.dockerenv")
	switch {
	case err == nil:
		return "true"
	case errors.Is(err, fs.ErrNotExist):
		return "false"
	default:
		return unknown
	}
}
