package alert

import (
	"testing"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

func kinds(alerts []model.Alert) []model.Kind {
	out := make([]model.Kind, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestEvaluateStrictThresholds(t *testing.T) {
	th := model.DefaultThresholds()

	tests := []struct {
		name   string
		sample model.Sample
		want   []model.Kind
	}{
		{"all below", model.Sample{CPUPercent: 10, RAMPercent: 10, NetworkMBs: 1}, nil},
		{"equal is not over", model.Sample{CPUPercent: 90, RAMPercent: 85, NetworkMBs: 90}, nil},
		{"cpu just over", model.Sample{CPUPercent: 90.01}, []model.Kind{model.KindCPU}},
		{"ram over", model.Sample{RAMPercent: 86}, []model.Kind{model.KindRAM}},
		{"network over", model.Sample{NetworkMBs: 91}, []model.Kind{model.KindNetwork}},
		{"disk equal", model.Sample{Disks: []model.DiskUsage{{Device: "sda", Percent: 90}}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := kinds(Evaluate(tc.sample, th))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestEvaluateOrdering(t *testing.T) {
	s := model.Sample{
		CPUPercent: 99,
		RAMPercent: 99,
		NetworkMBs: 500,
		Disks: []model.DiskUsage{
			{Device: "/dev/sdb1", Percent: 97},
			{Device: "/dev/sda1", Percent: 10},
			{Device: "/dev/nvme0n1p2", Percent: 91},
		},
	}
	got := Evaluate(s, model.DefaultThresholds())

	want := []struct {
		kind    model.Kind
		subject string
	}{
		{model.KindCPU, ""},
		{model.KindRAM, ""},
		{model.KindNetwork, ""},
		{model.KindDisk, "/dev/sdb1"},
		{model.KindDisk, "/dev/nvme0n1p2"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d alerts, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].Subject != w.subject {
			t.Fatalf("alert %d = %s/%s, want %s/%s", i, got[i].Kind, got[i].Subject, w.kind, w.subject)
		}
	}
}

func TestEvaluateMessages(t *testing.T) {
	s := model.Sample{
		CPUPercent: 95,
		RAMPercent: 88.5,
		NetworkMBs: 123.456,
		Disks:      []model.DiskUsage{{Device: "/dev/sda1", Percent: 95}},
	}
	got := Evaluate(s, model.DefaultThresholds())
	want := []string{
		"High CPU usage (95%)",
		"High RAM usage (88.5%)",
		"High Network usage (123.46 MB/s)",
		"Disk /dev/sda1 full (95%)",
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i].Message != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i].Message, want[i])
		}
	}
	if got[0].Value != 95 {
		t.Errorf("cpu alert value = %v", got[0].Value)
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	th := model.Thresholds{CPU: 50, RAM: 50, Network: 5, Disk: 99}
	s := model.Sample{CPUPercent: 60, RAMPercent: 40, NetworkMBs: 10, Disks: []model.DiskUsage{{Device: "sda", Percent: 95}}}

	got := kinds(Evaluate(s, th))
	if len(got) != 2 || got[0] != model.KindCPU || got[1] != model.KindNetwork {
		t.Fatalf("got %v", got)
	}
}

func TestBody(t *testing.T) {
	alerts := []model.Alert{{Message: "High CPU usage (95%)"}, {Message: "Disk sda full (99%)"}}
	if got := Body(alerts); got != "High CPU usage (95%)\nDisk sda full (99%)" {
		t.Fatalf("Body = %q", got)
	}
	if got := Body(nil); got != "" {
		t.Fatalf("Body(nil) = %q", got)
	}
}
