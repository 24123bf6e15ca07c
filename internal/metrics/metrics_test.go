package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

var testNow = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

func TestObserverThroughInterpreter(t *testing.T) {
	m := New()
	in := shell.NewInterpreter(shell.WithObserver(m))

	res := in.Execute(shell.Request{Line: "mkdir d | ls | wc -l", FS: vfs.Empty(testNow), Cwd: "/", Now: testNow})
	if res.Status != shell.StatusSuccess {
		t.Fatalf("unexpected failure %q", res.Output)
	}
	in.Execute(shell.Request{Line: "cat nope", FS: res.FS, Cwd: "/", Now: testNow})

	tests := []struct {
		command, status string
		want            float64
	}{
		{"mkdir", "success", 1},
		{"ls", "success", 1},
		{"wc", "success", 1},
		{"cat", "error", 1},
		{"cat", "success", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.commandsTotal.WithLabelValues(tt.command, tt.status))
		if got != tt.want {
			t.Errorf("%s/%s: expected %v got %v", tt.command, tt.status, tt.want, got)
		}
	}

	// root and d
	if got := testutil.ToFloat64(m.fsNodes.WithLabelValues("directory")); got != 2 {
		t.Errorf("expected 2 directories got %v", got)
	}
	if got := testutil.CollectAndCount(m.pipelineStages); got != 1 {
		t.Errorf("expected one histogram got %d", got)
	}
}

func TestRecordAsync(t *testing.T) {
	m := New()
	m.RecordAsync(shell.AsyncZip)
	m.RecordAsync(shell.AsyncZip)
	m.RecordAsync(shell.AsyncUnzip)

	if got := testutil.ToFloat64(m.asyncOperations.WithLabelValues("zip")); got != 2 {
		t.Errorf("expected 2 zips got %v", got)
	}
	if got := testutil.ToFloat64(m.asyncOperations.WithLabelValues("unzip")); got != 1 {
		t.Errorf("expected 1 unzip got %v", got)
	}
}

func TestWriteTextAndDump(t *testing.T) {
	m := New()
	m.CommandDone("ls", shell.StatusSuccess)

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), `vsh_commands_total{command="ls",status="success"} 1`) {
		t.Errorf("exposition is missing the counter:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.Dump(path); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Errorf("dump differs from WriteText output")
	}
}
