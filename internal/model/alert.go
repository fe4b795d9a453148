package model

// Kind identifies the metric that raised an alert.
type Kind string

const (
	KindCPU     Kind = "CPU"
	KindRAM     Kind = "RAM"
	KindNetwork Kind = "NETWORK"
	KindDisk    Kind = "DISK"
)

// Alert is one over-threshold observation. Alerts live for a single tick;
// only their Message is ever sent or stored.
type Alert struct {
	Kind    Kind
	Subject string // disk device when Kind is KindDisk
	Message string
	Value   float64
}
