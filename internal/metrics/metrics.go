// Package metrics provides Prometheus metrics for the virtual shell.
package metrics

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// Metrics records interpreter activity on its own registry. It satisfies
// shell.Observer.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	pipelineStages  prometheus.Histogram
	fsNodes         *prometheus.GaugeVec
	asyncOperations *prometheus.CounterVec
}

var _ shell.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsh_commands_total",
				Help: "Total number of dispatched commands",
			},
			[]string{"command", "status"},
		),

		pipelineStages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsh_pipeline_stages",
				Help:    "Number of stages per executed command line",
				Buckets: []float64{1, 2, 3, 4, 6, 8},
			},
		),

		fsNodes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vsh_fs_nodes",
				Help: "Number of nodes in the session tree after the last line",
			},
			[]string{"kind"},
		),

		asyncOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsh_async_operations_total",
				Help: "Total number of zip and unzip results shown with progress",
			},
			[]string{"type"},
		),
	}
}

// Registry returns the private registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CommandDone(name string, status shell.Status) {
	m.commandsTotal.WithLabelValues(name, status.String()).Inc()
}

func (m *Metrics) LineDone(stages int, fs *vfs.FS) {
	m.pipelineStages.Observe(float64(stages))
	if fs == nil {
		return
	}
	dirs, files := fs.Count()
	m.fsNodes.WithLabelValues("directory").Set(float64(dirs))
	m.fsNodes.WithLabelValues("file").Set(float64(files))
}

func (m *Metrics) RecordAsync(t shell.AsyncType) {
	m.asyncOperations.WithLabelValues(string(t)).Inc()
}

// WriteText writes every metric family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Dump writes the text exposition to path, replacing the file.
func (m *Metrics) Dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
