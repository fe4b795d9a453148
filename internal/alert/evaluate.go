package alert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

// Evaluate returns the alerts raised by s under t, ordered CPU, RAM,
// NETWORK, then one DISK alert per over-threshold device in sample order.
// A metric alerts only when strictly greater than its cutoff.
func Evaluate(s model.Sample, t model.Thresholds) []model.Alert {
	var alerts []model.Alert
	if s.CPUPercent > t.CPU {
		alerts = append(alerts, model.Alert{
			Kind:    model.KindCPU,
			Message: fmt.Sprintf("High CPU usage (%s%%)", pct(s.CPUPercent)),
			Value:   s.CPUPercent,
		})
	}
	if s.RAMPercent > t.RAM {
		alerts = append(alerts, model.Alert{
			Kind:    model.KindRAM,
			Message: fmt.Sprintf("High RAM usage (%s%%)", pct(s.RAMPercent)),
			Value:   s.RAMPercent,
		})
	}
	if s.NetworkMBs > t.Network {
		alerts = append(alerts, model.Alert{
			Kind:    model.KindNetwork,
			Message: fmt.Sprintf("High Network usage (%.2f MB/s)", s.NetworkMBs),
			Value:   s.NetworkMBs,
		})
	}
	for _, d := range s.Disks {
		if d.Percent > t.Disk {
			alerts = append(alerts, model.Alert{
				Kind:    model.KindDisk,
				Subject: d.Device,
				Message: fmt.Sprintf("Disk %s full (%s%%)", d.Device, pct(d.Percent)),
				Value:   d.Percent,
			})
		}
	}
	return alerts
}

// Body joins alert messages one per line, as sent to the notifier.
func Body(alerts []model.Alert) string {
	msgs := make([]string, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, a.Message)
	}
	return strings.Join(msgs, "\n")
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
