package report

import (
	"strings"
	"testing"
	"time"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

func TestRenderHealthy(t *testing.T) {
	s := model.Sample{
		Timestamp:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		CPUPercent: 12.5,
		RAMPercent: 40,
		NetworkMBs: 1.234,
		IP:         "10.0.0.5",
		Disks:      []model.DiskUsage{{Device: "/dev/sda1", Percent: 55}},
	}
	f := Render(s, nil)

	if f.Header != "Report at 2024-03-01 12:30:00" {
		t.Fatalf("Header = %q", f.Header)
	}
	if !f.Healthy || len(f.Alerts) != 1 || f.Alerts[0] != NoAlerts {
		t.Fatalf("Alerts = %v healthy=%v", f.Alerts, f.Healthy)
	}
	if f.Metrics[0] != "CPU: 12.5%  RAM: 40.0%  Network: 1.23 MB/s" {
		t.Fatalf("metric line = %q", f.Metrics[0])
	}
	if f.Metrics[1] != "IP: 10.0.0.5" {
		t.Fatalf("ip line = %q", f.Metrics[1])
	}
	if len(f.Disks) != 1 || f.Disks[0] != "Disk /dev/sda1: 55.0%" {
		t.Fatalf("Disks = %v", f.Disks)
	}
	if f.Battery != "" {
		t.Fatalf("Battery = %q, want empty", f.Battery)
	}
	if len(f.Gauges) != 3 || f.Gauges[0].Label != "CPU" || f.Gauges[2].Label != "/dev/sda1" || f.Gauges[2].Percent != 55 {
		t.Fatalf("Gauges = %+v", f.Gauges)
	}
}

func TestRenderAlertsAndBattery(t *testing.T) {
	batt := 64.0
	s := model.Sample{Timestamp: time.Now(), Battery: &batt, IP: model.UnknownIP}
	alerts := []model.Alert{{Kind: model.KindCPU, Message: "High CPU usage (95%)"}}

	f := Render(s, alerts)
	if f.Healthy {
		t.Fatalf("expected unhealthy frame")
	}
	if len(f.Alerts) != 1 || f.Alerts[0] != "High CPU usage (95%)" {
		t.Fatalf("Alerts = %v", f.Alerts)
	}
	if f.Battery != "Battery: 64.0%" {
		t.Fatalf("Battery = %q", f.Battery)
	}

	lines := f.Lines()
	if lines[len(lines)-1] != "Battery: 64.0%" {
		t.Fatalf("battery should be last line: %v", lines)
	}
	if !strings.HasPrefix(f.String(), "Report at ") {
		t.Fatalf("String() = %q", f.String())
	}
}
