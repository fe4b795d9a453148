package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

// Metrics exposes the latest sample and per-tick outcomes as Prometheus
// collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	cpu            prometheus.Gauge
	ram            prometheus.Gauge
	network        prometheus.Gauge
	battery        *prometheus.GaugeVec
	disk           *prometheus.GaugeVec
	alertsTotal    *prometheus.CounterVec
	sinkFailures   *prometheus.CounterVec
	ticksTotal     prometheus.Counter
	sourceFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		cpu: f.NewGauge(prometheus.GaugeOpts{
			Name: "sysmon_cpu_percent",
			Help: "CPU busy percent at the last tick",
		}),
		ram: f.NewGauge(prometheus.GaugeOpts{
			Name: "sysmon_ram_percent",
			Help: "Memory used percent at the last tick",
		}),
		network: f.NewGauge(prometheus.GaugeOpts{
			Name: "sysmon_network_mb_per_second",
			Help: "Network throughput in MiB at the last tick",
		}),
		battery: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sysmon_battery_percent",
			Help: "Battery charge percent, absent without a battery sensor",
		}, nil),
		disk: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sysmon_disk_used_percent",
			Help: "Per-device disk fill percent at the last tick",
		}, []string{"device"}),
		alertsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sysmon_alerts_total",
			Help: "Alerts raised, by metric kind",
		}, []string{"kind"}),
		sinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sysmon_sink_failures_total",
			Help: "Failed sink invocations, by sink",
		}, []string{"sink"}),
		ticksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sysmon_ticks_total",
			Help: "Ticks that produced a sample",
		}),
		sourceFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sysmon_source_failures_total",
			Help: "Ticks aborted because the metric source failed",
		}),
	}
}

// ObserveSample records the tick's sample and alerts.
func (m *Metrics) ObserveSample(s model.Sample, alerts []model.Alert) {
	m.ticksTotal.Inc()
	m.cpu.Set(s.CPUPercent)
	m.ram.Set(s.RAMPercent)
	m.network.Set(s.NetworkMBs)

	m.battery.Reset()
	if s.HasBattery() {
		m.battery.WithLabelValues().Set(*s.Battery)
	}

	m.disk.Reset()
	for _, d := range s.Disks {
		m.disk.WithLabelValues(d.Device).Set(d.Percent)
	}
	for _, a := range alerts {
		m.alertsTotal.WithLabelValues(string(a.Kind)).Inc()
	}
}

// ObserveSink counts a failed sink run. Successful runs are ignored.
func (m *Metrics) ObserveSink(sink string, err error) {
	if err != nil {
		m.sinkFailures.WithLabelValues(sink).Inc()
	}
}

// ObserveSourceFailure counts a tick aborted by the source.
func (m *Metrics) ObserveSourceFailure(error) { m.sourceFailures.Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
