package model

import (
	"fmt"
	"time"
)

// UnknownIP is reported when the local address cannot be resolved.
const UnknownIP = "unknown"

// DiskUsage is the fill level of one mounted partition.
type DiskUsage struct {
	Device     string
	Mountpoint string
	Percent    float64 // percent 0-100
}

// Sample is the full snapshot exchanged between the assembler, the
// evaluator and every sink of a tick. It is passed by value and never
// modified after assembly.
type Sample struct {
	Timestamp  time.Time
	Hostname   string
	CPUPercent float64 // percent 0-100
	RAMPercent float64 // percent 0-100
	NetworkMBs float64
	Disks      []DiskUsage // discovery order, unique devices
	Battery    *float64    // nil without a battery sensor
	IP         string
}

// HasBattery reports whether a battery reading is present.
func (s Sample) HasBattery() bool { return s.Battery != nil }

// Default cutoffs.
const (
	DefaultCPUThreshold     = 90
	DefaultRAMThreshold     = 85
	DefaultNetworkThreshold = 90
	DefaultDiskCutoff       = 90
)

// Thresholds are the alert cutoffs. Built once at startup, read-only after.
type Thresholds struct {
	CPU     float64 `koanf:"cpu"`     // percent
	RAM     float64 `koanf:"ram"`     // percent
	Network float64 `koanf:"network"` // MB/s
	Disk    float64 `koanf:"disk"`    // percent, applied to every device
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CPU:     DefaultCPUThreshold,
		RAM:     DefaultRAMThreshold,
		Network: DefaultNetworkThreshold,
		Disk:    DefaultDiskCutoff,
	}
}

// Validate rejects negative cutoffs.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"cpu":     t.CPU,
		"ram":     t.RAM,
		"network": t.Network,
		"disk":    t.Disk,
	} {
		if v < 0 {
			return fmt.Errorf("threshold %s must be >= 0, got %v", name, v)
		}
	}
	return nil
}
