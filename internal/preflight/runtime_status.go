package preflight

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskUsage is a snapshot of the volume that holds a path.
type DiskUsage struct {
	Path        string
	Total       uint64
	Free        uint64
	UsedPercent float64
	Err         error
}

// StorageUsage reports capacity for the volume holding path.
func StorageUsage(path string) DiskUsage {
	stat, err := disk.Usage(path)
	if err != nil {
		return DiskUsage{Path: path, Err: err}
	}
	return DiskUsage{
		Path:        path,
		Total:       stat.Total,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
	}
}

// Detail renders a display-friendly summary for status UIs.
func (u DiskUsage) Detail() string {
	if u.Err != nil {
		return fmt.Sprintf("unavailable (%v)", u.Err)
	}
	return fmt.Sprintf("%s free of %s (%.0f%% used)", humanize.IBytes(u.Free), humanize.IBytes(u.Total), u.UsedPercent)
}
