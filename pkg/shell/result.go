package shell

import (
	"time"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// Status tells the caller how to present an invocation.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "success"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OutputKind selects what the caller should do with a result.
type OutputKind uint8

const (
	OutputText OutputKind = iota
	OutputClearScreen
	OutputOpenEditor
)

func (k OutputKind) String() string {
	switch k {
	case OutputClearScreen:
		return "clear"
	case OutputOpenEditor:
		return "editor"
	}
	return "text"
}

func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AsyncType names the operation a deferred result belongs to.
type AsyncType string

const (
	AsyncZip   AsyncType = "zip"
	AsyncUnzip AsyncType = "unzip"
)

// AsyncOp marks a result the caller may reveal over time. The result is
// already complete; only its presentation is deferred.
type AsyncOp struct {
	Type    AsyncType `json:"type"`
	Targets []string  `json:"targets"`
}

// Result is what one command line produces.
type Result struct {
	Kind   OutputKind `json:"kind"`
	Output string     `json:"output"`
	Status Status     `json:"status"`

	// EditorPath is the absolute file an OutputOpenEditor result targets.
	// StdinContent, when HasStdinContent is set, seeds the editor buffer
	// instead of the file's current content.
	EditorPath      string `json:"editorPath,omitempty"`
	StdinContent    string `json:"stdinContent,omitempty"`
	HasStdinContent bool   `json:"-"`

	// FS is nil and Cwd empty when unchanged.
	FS  *vfs.FS `json:"newFs,omitempty"`
	Cwd string  `json:"newCwd,omitempty"`

	Async *AsyncOp `json:"async,omitempty"`
}

const (
	clearSentinel = "__CLEAR__"
	nanoSentinel  = "__NANO__"
)

// Wire renders the output in the legacy string form, where clear-screen and
// editor results are sentinel strings.
func (r Result) Wire() string {
	switch r.Kind {
	case OutputClearScreen:
		return clearSentinel
	case OutputOpenEditor:
		return nanoSentinel + r.EditorPath
	}
	return r.Output
}

// HistoryEntry is one line of the caller's command log.
type HistoryEntry struct {
	Command   string    `json:"command"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Cwd       string    `json:"cwd"`
}

func text(output string) Result {
	return Result{Output: output}
}

func failure(output string) Result {
	return Result{Output: output, Status: StatusError}
}
