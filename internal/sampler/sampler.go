package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// ErrSource marks failures of the metric source itself.
var ErrSource = errors.New("metric source failure")

// SourceError reports that a mandatory field could not be read.
type SourceError struct {
	Field string
	Err   error
}

func (e *SourceError) Error() string { return fmt.Sprintf("read %s: %v", e.Field, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSource }

// Partition is one mounted filesystem. Err is set when its usage could
// not be read.
type Partition struct {
	Device     string
	Mountpoint string
	Percent    float64
	Err        error
}

// Reading is one raw snapshot as returned by a Source.
type Reading struct {
	Taken         time.Time
	CPU           float64
	RAM           float64
	NetBytesSent  uint64
	NetBytesRecv  uint64
	Partitions    []Partition
	PartitionsErr error // partition listing failed entirely
	Battery       *float64
	Hostname      string
}

// Source returns one snapshot of raw readings on demand.
type Source interface {
	Read(ctx context.Context) (Reading, error)
}

// HostSource reads the local host through gopsutil and sysfs.
type HostSource struct {
	BatteryGlob string

	mu        sync.Mutex
	prevTotal float64
	prevIdle  float64
}

// NewHostSource primes the CPU counters so the first Read reports a real
// busy percentage.
func NewHostSource(ctx context.Context) *HostSource {
	s := &HostSource{BatteryGlob: "/sys/class/power_supply/BAT*/capacity"}
	_, _ = s.cpuPercent(ctx)
	return s
}

func (s *HostSource) Read(ctx context.Context) (Reading, error) {
	r := Reading{Taken: time.Now()}

	cpuPct, err := s.cpuPercent(ctx)
	if err != nil {
		return r, &SourceError{Field: "cpu", Err: err}
	}
	r.CPU = cpuPct

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return r, &SourceError{Field: "ram", Err: err}
	}
	r.RAM = memStat.UsedPercent

	netCounters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return r, &SourceError{Field: "network", Err: err}
	}
	if len(netCounters) == 0 {
		return r, &SourceError{Field: "network", Err: errors.New("no interface counters")}
	}
	r.NetBytesSent = netCounters[0].BytesSent
	r.NetBytesRecv = netCounters[0].BytesRecv

	r.Partitions, r.PartitionsErr = s.partitions(ctx)
	r.Battery = s.battery()
	r.Hostname, _ = os.Hostname()
	return r, nil
}

// CPU busy percent from the times delta since the previous call.
func (s *HostSource) cpuPercent(ctx context.Context) (float64, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return 0, err
	}
	if len(times) == 0 {
		return 0, errors.New("no cpu times")
	}
	cur := times[0]
	curTotal := cur.Total()
	curIdle := cur.Idle + cur.Iowait

	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	if s.prevTotal > 0 {
		dt := curTotal - s.prevTotal
		di := curIdle - s.prevIdle
		if dt > 0 {
			total = 100 * (1 - di/dt)
		}
	}
	s.prevTotal, s.prevIdle = curTotal, curIdle
	return clampPct(total), nil
}

func (s *HostSource) partitions(ctx context.Context) ([]Partition, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, 0, len(parts))
	for _, p := range parts {
		part := Partition{Device: p.Device, Mountpoint: p.Mountpoint}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			part.Err = err
		} else {
			part.Percent = usage.UsedPercent
		}
		out = append(out, part)
	}
	return out, nil
}

func (s *HostSource) battery() *float64 {
	battPaths, _ := filepath.Glob(s.BatteryGlob)
	for _, capPath := range battPaths {
		capBytes, err := os.ReadFile(capPath)
		if err != nil {
			continue
		}
		pct, err := parseFloat(string(capBytes))
		if err != nil {
			continue
		}
		return &pct
	}
	return nil
}

// Helpers
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	return strconv.ParseFloat(s, 64)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
