package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

// NoAlerts is shown in place of the alert section when nothing fired.
const NoAlerts = "No alerts."

// TimeLayout formats the report header timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Gauge is a labelled percentage a display may draw as a bar.
type Gauge struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// Frame is one tick's report, ready for any display to draw.
type Frame struct {
	Header  string   `json:"header"`
	Alerts  []string `json:"alerts"`
	Metrics []string `json:"metrics"`
	Disks   []string `json:"disks"`
	Battery string   `json:"battery,omitempty"`
	Healthy bool     `json:"healthy"`
	Gauges  []Gauge  `json:"gauges"`
}

// Render formats s and its alerts. It performs no I/O.
func Render(s model.Sample, alerts []model.Alert) Frame {
	f := Frame{
		Header:  "Report at " + s.Timestamp.Format(TimeLayout),
		Healthy: len(alerts) == 0,
		Metrics: []string{
			fmt.Sprintf("CPU: %s%%  RAM: %s%%  Network: %.2f MB/s", pct(s.CPUPercent), pct(s.RAMPercent), s.NetworkMBs),
			"IP: " + s.IP,
		},
	}

	if f.Healthy {
		f.Alerts = []string{NoAlerts}
	} else {
		f.Alerts = make([]string, 0, len(alerts))
		for _, a := range alerts {
			f.Alerts = append(f.Alerts, a.Message)
		}
	}

	f.Gauges = []Gauge{{Label: "CPU", Percent: s.CPUPercent}, {Label: "RAM", Percent: s.RAMPercent}}
	f.Disks = make([]string, 0, len(s.Disks))
	for _, d := range s.Disks {
		f.Disks = append(f.Disks, fmt.Sprintf("Disk %s: %s%%", d.Device, pct(d.Percent)))
		f.Gauges = append(f.Gauges, Gauge{Label: d.Device, Percent: d.Percent})
	}

	if s.HasBattery() {
		f.Battery = fmt.Sprintf("Battery: %s%%", pct(*s.Battery))
	}
	return f
}

// Lines returns the frame in display order.
func (f Frame) Lines() []string {
	lines := make([]string, 0, 1+len(f.Alerts)+len(f.Metrics)+len(f.Disks)+1)
	lines = append(lines, f.Header)
	lines = append(lines, f.Alerts...)
	lines = append(lines, f.Metrics...)
	lines = append(lines, f.Disks...)
	if f.Battery != "" {
		lines = append(lines, f.Battery)
	}
	return lines
}

func (f Frame) String() string { return strings.Join(f.Lines(), "\n") }

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
