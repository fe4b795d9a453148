package sampler

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeResolver struct {
	addrs []net.IPAddr
	err   error
	calls int
}

func (f *fakeResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	f.calls++
	return f.addrs, f.err
}

type fakeSource struct {
	reading Reading
	err     error
}

func (f fakeSource) Read(ctx context.Context) (Reading, error) { return f.reading, f.err }

func ptr(v float64) *float64 { return &v }

func TestAssembleDegradesOptionalFields(t *testing.T) {
	res := &fakeResolver{err: errors.New("no such host")}
	a := NewAssembler(discard(), ModeCumulative, res)

	r := Reading{
		Taken:    time.Unix(1700000000, 0),
		CPU:      12,
		RAM:      34,
		Hostname: "box",
		Partitions: []Partition{
			{Device: "/dev/sda1", Mountpoint: "/", Percent: 40},
			{Device: "/dev/sr0", Mountpoint: "/media/cd", Err: errors.New("permission denied")},
			{Device: "/dev/sdb1", Mountpoint: "/data", Percent: 95},
		},
	}
	s := a.Assemble(context.Background(), r)

	if s.Battery != nil {
		t.Fatalf("expected absent battery, got %v", *s.Battery)
	}
	if s.IP != model.UnknownIP {
		t.Fatalf("IP = %q, want %q", s.IP, model.UnknownIP)
	}
	if len(s.Disks) != 2 || s.Disks[0].Device != "/dev/sda1" || s.Disks[1].Device != "/dev/sdb1" {
		t.Fatalf("unexpected disks: %+v", s.Disks)
	}
	if s.CPUPercent != 12 || s.RAMPercent != 34 || !s.Timestamp.Equal(r.Taken) {
		t.Fatalf("mandatory fields not carried: %+v", s)
	}

	// Same degraded input twice gives the same result.
	again := a.Assemble(context.Background(), r)
	if len(again.Disks) != len(s.Disks) || again.IP != s.IP {
		t.Fatalf("degradation not idempotent: %+v vs %+v", again, s)
	}
}

func TestAssemblePartitionListingFailure(t *testing.T) {
	a := NewAssembler(discard(), ModeCumulative, &fakeResolver{})
	s := a.Assemble(context.Background(), Reading{CPU: 1, PartitionsErr: errors.New("boom")})
	if len(s.Disks) != 0 {
		t.Fatalf("expected no disks, got %+v", s.Disks)
	}
}

func TestAssembleDuplicateDeviceKeepsFirstPosition(t *testing.T) {
	a := NewAssembler(discard(), ModeCumulative, &fakeResolver{})
	s := a.Assemble(context.Background(), Reading{Partitions: []Partition{
		{Device: "/dev/sda1", Mountpoint: "/", Percent: 10},
		{Device: "/dev/sdb1", Mountpoint: "/data", Percent: 20},
		{Device: "/dev/sda1", Mountpoint: "/var/lib/docker", Percent: 11},
	}})
	if len(s.Disks) != 2 {
		t.Fatalf("expected unique devices, got %+v", s.Disks)
	}
	if s.Disks[0].Device != "/dev/sda1" || s.Disks[0].Percent != 11 {
		t.Fatalf("duplicate device should overwrite in place: %+v", s.Disks[0])
	}
}

func TestAssembleBatteryIsCopied(t *testing.T) {
	a := NewAssembler(discard(), ModeCumulative, &fakeResolver{})
	batt := ptr(77)
	s := a.Assemble(context.Background(), Reading{Battery: batt})
	*batt = 1
	if s.Battery == nil || *s.Battery != 77 {
		t.Fatalf("battery = %v", s.Battery)
	}
}

func TestResolvePrefersIPv4(t *testing.T) {
	res := &fakeResolver{addrs: []net.IPAddr{{IP: net.ParseIP("fe80::1")}, {IP: net.ParseIP("192.168.1.20")}}}
	a := NewAssembler(discard(), ModeCumulative, res)
	if ip := a.Assemble(context.Background(), Reading{Hostname: "box"}).IP; ip != "192.168.1.20" {
		t.Fatalf("IP = %q", ip)
	}

	res.addrs = []net.IPAddr{{IP: net.ParseIP("fe80::1")}}
	if ip := a.Assemble(context.Background(), Reading{Hostname: "box"}).IP; ip != "fe80::1" {
		t.Fatalf("IP = %q", ip)
	}
}

func TestResolveSkippedWithoutHostname(t *testing.T) {
	res := &fakeResolver{}
	a := NewAssembler(discard(), ModeCumulative, res)
	if ip := a.Assemble(context.Background(), Reading{}).IP; ip != model.UnknownIP {
		t.Fatalf("IP = %q", ip)
	}
	if res.calls != 0 {
		t.Fatalf("resolver called %d times", res.calls)
	}
}

func TestNetworkCumulative(t *testing.T) {
	a := NewAssembler(discard(), ModeCumulative, &fakeResolver{})
	s := a.Assemble(context.Background(), Reading{NetBytesSent: 3 * mib, NetBytesRecv: 7 * mib})
	if s.NetworkMBs != 10 {
		t.Fatalf("NetworkMBs = %v, want 10", s.NetworkMBs)
	}
}

func TestNetworkRate(t *testing.T) {
	a := NewAssembler(discard(), ModeRate, &fakeResolver{})
	t0 := time.Unix(1700000000, 0)

	first := a.Assemble(context.Background(), Reading{Taken: t0, NetBytesSent: 100 * mib})
	if first.NetworkMBs != 0 {
		t.Fatalf("first rate = %v, want 0", first.NetworkMBs)
	}

	second := a.Assemble(context.Background(), Reading{Taken: t0.Add(2 * time.Second), NetBytesSent: 100 * mib, NetBytesRecv: 8 * mib})
	if math.Abs(second.NetworkMBs-4) > 1e-9 {
		t.Fatalf("rate = %v, want 4", second.NetworkMBs)
	}

	// Counter reset reports zero instead of a huge unsigned delta.
	reset := a.Assemble(context.Background(), Reading{Taken: t0.Add(3 * time.Second), NetBytesSent: mib})
	if reset.NetworkMBs != 0 {
		t.Fatalf("rate after reset = %v, want 0", reset.NetworkMBs)
	}
}

func TestCollectPropagatesSourceError(t *testing.T) {
	a := NewAssembler(discard(), ModeRate, &fakeResolver{})
	src := fakeSource{err: &SourceError{Field: "cpu", Err: errors.New("permission denied")}}

	_, err := a.Collect(context.Background(), src)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Field != "cpu" {
		t.Fatalf("expected cpu SourceError, got %v", err)
	}
}

func TestCollect(t *testing.T) {
	a := NewAssembler(discard(), ModeRate, &fakeResolver{})
	s, err := a.Collect(context.Background(), fakeSource{reading: Reading{CPU: 50, RAM: 60}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.CPUPercent != 50 || s.RAMPercent != 60 {
		t.Fatalf("unexpected sample %+v", s)
	}
}

func TestHostSourceBattery(t *testing.T) {
	dir := t.TempDir()
	bat := filepath.Join(dir, "BAT0")
	if err := os.MkdirAll(bat, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bat, "capacity"), []byte("83\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &HostSource{BatteryGlob: filepath.Join(dir, "BAT*", "capacity")}
	b := s.battery()
	if b == nil || *b != 83 {
		t.Fatalf("battery = %v", b)
	}

	s.BatteryGlob = filepath.Join(dir, "missing*", "capacity")
	if b := s.battery(); b != nil {
		t.Fatalf("expected no battery, got %v", *b)
	}
}

func TestParseFloat(t *testing.T) {
	tests := map[string]float64{"42": 42, " 7.5%\n": 7.5, "100%": 100}
	for in, want := range tests {
		got, err := parseFloat(in)
		if err != nil || got != want {
			t.Errorf("parseFloat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseFloat("n/a"); err == nil {
		t.Errorf("expected error for n/a")
	}
}
