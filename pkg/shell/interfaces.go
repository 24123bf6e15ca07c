package shell

import (
	"time"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// Handler runs one builtin. Handlers are pure: everything they read comes in
// through the Invocation and everything they change goes out in the Result.
type Handler interface {
	Run(inv *Invocation) Result
}

type HandlerFunc func(inv *Invocation) Result

func (f HandlerFunc) Run(inv *Invocation) Result {
	return f(inv)
}

// Observer is told about every dispatched stage and finished line.
type Observer interface {
	CommandDone(name string, status Status)
	LineDone(stages int, fs *vfs.FS)
}

// Invocation is the full input of one pipeline stage.
type Invocation struct {
	Name    string
	Args    []string
	Options Options
	Params  []string

	FS     *vfs.FS
	Cwd    string
	OldPwd string

	Stdin    string
	HasStdin bool

	History []HistoryEntry
	Now     time.Time
	Host    string

	// Interactive is false when the output feeds a pipe or a file.
	Interactive bool

	registry *Registry
}

func (inv *Invocation) abs(p string) string {
	return vfs.Normalize(inv.Cwd, p)
}

func (inv *Invocation) lookup(p string) *vfs.Node {
	return inv.FS.Lookup(inv.Cwd, p)
}

// redispatch runs another command with the same context, as sudo does.
func (inv *Invocation) redispatch(name string, args []string) Result {
	next := *inv
	next.Name = name
	next.Args = args
	next.Options, next.Params = ParseArgs(args)
	return inv.registry.Dispatch(&next)
}
