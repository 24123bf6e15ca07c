package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	interp "github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// exit error
var ErrExit = errors.New("exit")

// Builtin is a command the session handles itself, before the interpreter.
type Builtin func(args []string, s *Shell) error

// LineReader yields one input line per call. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// prompter is implemented by readers that draw the prompt themselves.
type prompter interface {
	SetPrompt(string)
}

type bufioReader struct {
	r *bufio.Reader
}

// NewLineReader reads newline-terminated lines from r.
func NewLineReader(r io.Reader) LineReader {
	return &bufioReader{r: bufio.NewReader(r)}
}

func (b *bufioReader) Readline() (string, error) {
	line, err := b.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Shell is one interactive session. It owns the tree, the working
// directory and the history, and applies every Result the interpreter
// returns.
type Shell struct {
	in  LineReader
	Out io.Writer
	Err io.Writer

	id       string
	interp   *interp.Interpreter
	logger   *zap.Logger
	host     string
	progress Progress
	onAsync  func(interp.AsyncType)
	now      func() time.Time

	fs      atomic.Pointer[vfs.FS]
	cwd     string
	oldPwd  string
	history []interp.HistoryEntry

	builtins map[string]Builtin
}

type Option func(*Shell)

func WithInterpreter(in *interp.Interpreter) Option {
	return func(s *Shell) { s.interp = in }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithFS starts the session on fs instead of the default tree.
func WithFS(fs *vfs.FS) Option {
	return func(s *Shell) { s.fs.Store(fs) }
}

func WithCwd(cwd string) Option {
	return func(s *Shell) { s.cwd = cwd }
}

// WithHostname sets the host shown in the prompt.
func WithHostname(h string) Option {
	return func(s *Shell) { s.host = h }
}

func WithProgress(p Progress) Option {
	return func(s *Shell) { s.progress = p }
}

// WithAsyncHook is called once for every zip or unzip result shown.
func WithAsyncHook(fn func(interp.AsyncType)) Option {
	return func(s *Shell) { s.onAsync = fn }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) { s.now = now }
}

func New(reader LineReader, out, errw io.Writer, opts ...Option) *Shell {
	s := &Shell{
		in:       reader,
		Out:      out,
		Err:      errw,
		id:       uuid.NewString(),
		logger:   zap.NewNop(),
		host:     interp.DefaultHostname,
		progress: DefaultProgress,
		now:      time.Now,
		cwd:      vfs.Home,
		builtins: make(map[string]Builtin),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interp == nil {
		s.interp = interp.NewInterpreter(interp.WithLogger(s.logger), interp.WithHostname(s.host))
	}
	if s.fs.Load() == nil {
		s.fs.Store(vfs.DefaultTree(s.now()))
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))

	s.registerBuiltins()
	return s
}

// ID is the session's unique identifier.
func (s *Shell) ID() string { return s.id }

// Snapshot returns the current tree. It is safe to call from any goroutine.
func (s *Shell) Snapshot() *vfs.FS { return s.fs.Load() }

func (s *Shell) Cwd() string { return s.cwd }

func (s *Shell) History() []interp.HistoryEntry {
	return append([]interp.HistoryEntry(nil), s.history...)
}

// Prompt renders student@host:path$ with the home directory shown as ~.
func (s *Shell) Prompt() string {
	p := s.cwd
	if p == vfs.Home {
		p = "~"
	} else if strings.HasPrefix(p, vfs.Home+"/") {
		p = "~" + strings.TrimPrefix(p, vfs.Home)
	}
	return fmt.Sprintf("student@%s:%s$ ", s.host, p)
}

func (s *Shell) Run() error {
	for {
		if pr, ok := s.in.(prompter); ok {
			pr.SetPrompt(s.Prompt())
		} else {
			fmt.Fprint(s.Out, s.Prompt())
		}

		line, err := s.in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if _, err := s.Exec(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(s.Err, "vsh:", err)
		}
	}
}

// Exec runs one line, applies its result to the session and records it in
// the history. Session builtins take precedence over the interpreter.
func (s *Shell) Exec(line string) (interp.Result, error) {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		if fn, ok := s.builtins[fields[0]]; ok {
			err := fn(fields[1:], s)
			s.record(line, interp.Result{})
			return interp.Result{}, err
		}
	}

	res := s.interp.Execute(interp.Request{
		Line:    line,
		FS:      s.fs.Load(),
		Cwd:     s.cwd,
		OldPwd:  s.oldPwd,
		History: s.history,
		Now:     s.now(),
	})

	if err := s.apply(res); err != nil {
		return res, err
	}
	s.record(line, res)
	return res, nil
}

func (s *Shell) apply(res interp.Result) error {
	switch res.Kind {
	case interp.OutputClearScreen:
		fmt.Fprint(s.Out, "\033[H\033[2J")
	case interp.OutputOpenEditor:
		s.commit(res)
		return s.edit(res)
	default:
		if res.Async != nil {
			s.progress.Render(s.Out, res.Async)
			if s.onAsync != nil {
				s.onAsync(res.Async.Type)
			}
		}
		if res.Output != "" {
			w := s.Out
			if res.Status == interp.StatusError {
				w = s.Err
			}
			fmt.Fprintln(w, res.Output)
		}
	}
	s.commit(res)
	return nil
}

// commit publishes the result's tree and directory.
func (s *Shell) commit(res interp.Result) {
	if res.FS != nil {
		s.fs.Store(res.FS)
	}
	if res.Cwd != "" && res.Cwd != s.cwd {
		s.oldPwd, s.cwd = s.cwd, res.Cwd
	}
	if res.FS != nil || res.Cwd != "" {
		s.logger.Debug("state committed",
			zap.Bool("fs_changed", res.FS != nil),
			zap.String("cwd", s.cwd),
		)
	}
}

func (s *Shell) record(line string, res interp.Result) {
	s.history = append(s.history, interp.HistoryEntry{
		Command:   line,
		Output:    res.Output,
		Timestamp: s.now(),
		Status:    res.Status,
		Cwd:       s.cwd,
	})
}
