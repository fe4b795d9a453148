package sampler

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

// NetworkMode selects how NetworkMBs is derived from byte counters.
type NetworkMode string

const (
	// ModeRate divides the counter delta between two readings by the
	// elapsed time. The first reading reports 0.
	ModeRate NetworkMode = "rate"
	// ModeCumulative reports total bytes since boot in MiB, unscaled by time.
	ModeCumulative NetworkMode = "cumulative"
)

func (m NetworkMode) Valid() bool { return m == ModeRate || m == ModeCumulative }

const mib = 1024 * 1024

const resolveTimeout = 500 * time.Millisecond

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type netMark struct {
	bytes uint64
	at    time.Time
}

// Assembler turns raw readings into samples. Optional fields degrade
// instead of failing the sample.
type Assembler struct {
	mode     NetworkMode
	resolver Resolver
	lo       *slog.Logger

	mu   sync.Mutex
	prev *netMark
}

func NewAssembler(lo *slog.Logger, mode NetworkMode, resolver Resolver) *Assembler {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if !mode.Valid() {
		mode = ModeRate
	}
	return &Assembler{mode: mode, resolver: resolver, lo: lo}
}

// Collect reads the source once and assembles the result. Errors are
// always mandatory-field failures from the source.
func (a *Assembler) Collect(ctx context.Context, src Source) (model.Sample, error) {
	r, err := src.Read(ctx)
	if err != nil {
		return model.Sample{}, fmt.Errorf("collecting sample: %w", err)
	}
	return a.Assemble(ctx, r), nil
}

// Assemble normalizes r into a Sample.
func (a *Assembler) Assemble(ctx context.Context, r Reading) model.Sample {
	ts := r.Taken
	if ts.IsZero() {
		ts = time.Now()
	}

	return model.Sample{
		Timestamp:  ts,
		Hostname:   r.Hostname,
		CPUPercent: r.CPU,
		RAMPercent: r.RAM,
		NetworkMBs: a.network(r.NetBytesSent+r.NetBytesRecv, ts),
		Disks:      a.disks(r),
		Battery:    copyFloat(r.Battery),
		IP:         a.resolveIP(ctx, r.Hostname),
	}
}

func (a *Assembler) network(total uint64, at time.Time) float64 {
	if a.mode == ModeCumulative {
		return float64(total) / mib
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.prev
	a.prev = &netMark{bytes: total, at: at}
	if prev == nil || total < prev.bytes || !at.After(prev.at) {
		return 0
	}
	return float64(total-prev.bytes) / mib / at.Sub(prev.at).Seconds()
}

func (a *Assembler) disks(r Reading) []model.DiskUsage {
	if r.PartitionsErr != nil {
		a.lo.Warn("listing partitions failed", "error", r.PartitionsErr)
		return nil
	}
	var (
		out   []model.DiskUsage
		index = make(map[string]int, len(r.Partitions))
	)
	for _, p := range r.Partitions {
		if p.Err != nil {
			a.lo.Debug("skipping unreadable partition", "device", p.Device, "mountpoint", p.Mountpoint, "error", p.Err)
			continue
		}
		du := model.DiskUsage{Device: p.Device, Mountpoint: p.Mountpoint, Percent: p.Percent}
		if i, ok := index[p.Device]; ok {
			out[i] = du
			continue
		}
		index[p.Device] = len(out)
		out = append(out, du)
	}
	return out
}

func (a *Assembler) resolveIP(ctx context.Context, hostname string) string {
	if hostname == "" {
		return model.UnknownIP
	}
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	addrs, err := a.resolver.LookupIPAddr(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		a.lo.Debug("resolving local address failed", "hostname", hostname, "error", err)
		return model.UnknownIP
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return addrs[0].IP.String()
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
