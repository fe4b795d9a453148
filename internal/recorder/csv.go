package recorder

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

const DefaultPath = "system_metrics.csv"

type appendFile interface {
	io.WriteCloser
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
}

func openAppend(path string) (appendFile, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// CSVRecorder appends one row per tick:
//
//	timestamp, cpu, ram, network, ip, disk..., battery
//
// Disk columns follow the order devices were first seen. A device missing
// from a tick leaves its cell empty, as does an absent battery.
type CSVRecorder struct {
	path string
	open func(path string) (appendFile, error)

	mu      sync.Mutex
	devices []string
	known   map[string]int
}

func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if path == "" {
		return nil, errors.New("csv recorder path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	return &CSVRecorder{path: path, open: openAppend, known: make(map[string]int)}, nil
}

func (c *CSVRecorder) Name() string { return "csv" }

// Columns returns the disk devices in column order.
func (c *CSVRecorder) Columns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.devices...)
}

// Record appends the row with a single write. A failed or short write is
// rolled back so the file never ends in a partial row.
func (c *CSVRecorder) Record(ctx context.Context, s model.Sample, _ []model.Alert) error {
	if err := ctx.Err(); err != nil {
		return &RecordError{Backend: c.Name(), Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(c.row(s)); err != nil {
		return &RecordError{Backend: c.Name(), Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &RecordError{Backend: c.Name(), Err: err}
	}

	if err := c.append(buf.Bytes()); err != nil {
		return &RecordError{Backend: c.Name(), Err: err}
	}
	return nil
}

func (c *CSVRecorder) append(line []byte) (err error) {
	f, err := c.open(c.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", c.path, cerr)
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.path, err)
	}
	size := st.Size()

	n, err := f.Write(line)
	if err == nil && n < len(line) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			if terr := f.Truncate(size); terr != nil {
				return errors.Join(fmt.Errorf("writing row: %w", err), fmt.Errorf("rolling back partial row: %w", terr))
			}
		}
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}

// row must be called with c.mu held.
func (c *CSVRecorder) row(s model.Sample) []string {
	for _, d := range s.Disks {
		if _, ok := c.known[d.Device]; !ok {
			c.known[d.Device] = len(c.devices)
			c.devices = append(c.devices, d.Device)
		}
	}

	row := make([]string, 0, 6+len(c.devices))
	row = append(row,
		s.Timestamp.Format(time.RFC3339Nano),
		num(s.CPUPercent),
		num(s.RAMPercent),
		num(s.NetworkMBs),
		s.IP,
	)

	disks := make([]string, len(c.devices))
	for _, d := range s.Disks {
		disks[c.known[d.Device]] = num(d.Percent)
	}
	row = append(row, disks...)

	batt := ""
	if s.HasBattery() {
		batt = num(*s.Battery)
	}
	return append(row, batt)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
