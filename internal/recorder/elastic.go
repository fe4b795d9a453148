package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

const DefaultIndex = "system-metrics"

type ElasticOpts struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// ElasticRecorder indexes one document per tick.
type ElasticRecorder struct {
	client *elasticsearch.Client
	index  string
}

type diskDoc struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	Percent    float64 `json:"percent"`
}

type sampleDoc struct {
	Timestamp  string    `json:"@timestamp"`
	Hostname   string    `json:"hostname"`
	CPUPercent float64   `json:"cpu_percent"`
	RAMPercent float64   `json:"ram_percent"`
	NetworkMBs float64   `json:"network_mb_per_s"`
	IP         string    `json:"ip_address"`
	Disks      []diskDoc `json:"disk_usage"`
	Battery    *float64  `json:"battery_percent,omitempty"`
	Alerts     []string  `json:"alerts,omitempty"`
}

func NewElasticRecorder(opts ElasticOpts) (*ElasticRecorder, error) {
	if len(opts.Addresses) == 0 {
		return nil, errors.New("elasticsearch addresses are required")
	}
	if opts.Index == "" {
		opts.Index = DefaultIndex
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &ElasticRecorder{client: es, index: opts.Index}, nil
}

func (e *ElasticRecorder) Name() string { return "elasticsearch" }

func (e *ElasticRecorder) Record(ctx context.Context, s model.Sample, alerts []model.Alert) error {
	jsonData, err := json.Marshal(newSampleDoc(s, alerts))
	if err != nil {
		return &RecordError{Backend: e.Name(), Err: err}
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(jsonData),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return &RecordError{Backend: e.Name(), Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return &RecordError{Backend: e.Name(), Err: fmt.Errorf("indexing to %s: %s", e.index, res.String())}
	}
	return nil
}

func newSampleDoc(s model.Sample, alerts []model.Alert) sampleDoc {
	doc := sampleDoc{
		Timestamp:  s.Timestamp.Format(time.RFC3339Nano),
		Hostname:   s.Hostname,
		CPUPercent: s.CPUPercent,
		RAMPercent: s.RAMPercent,
		NetworkMBs: s.NetworkMBs,
		IP:         s.IP,
		Disks:      make([]diskDoc, 0, len(s.Disks)),
		Battery:    s.Battery,
	}
	for _, d := range s.Disks {
		doc.Disks = append(doc.Disks, diskDoc{Device: d.Device, Mountpoint: d.Mountpoint, Percent: d.Percent})
	}
	for _, a := range alerts {
		doc.Alerts = append(doc.Alerts, a.Message)
	}
	return doc
}
