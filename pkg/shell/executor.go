package shell

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// Executor runs one command line against a filesystem snapshot.
type Executor interface {
	Execute(req Request) Result
}

// Request is everything a command line runs against. The interpreter never
// changes any of it; changes come back in the Result.
type Request struct {
	Line    string
	FS      *vfs.FS
	Cwd     string
	OldPwd  string
	History []HistoryEntry

	// Now stamps created and modified nodes. Zero means time.Now.
	Now time.Time
}

// Interpreter splits a line into pipeline stages, dispatches each stage to
// the registry and applies output redirection.
type Interpreter struct {
	registry *Registry
	parser   Parser
	handlers []RedirectionHandler
	logger   *zap.Logger
	observer Observer
	host     string
}

type Option func(*Interpreter)

func WithRegistry(r *Registry) Option {
	return func(in *Interpreter) { in.registry = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

func WithObserver(o Observer) Option {
	return func(in *Interpreter) { in.observer = o }
}

// WithHostname sets the name hostname and uname -n report.
func WithHostname(h string) Option {
	return func(in *Interpreter) { in.host = h }
}

func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{
		parser:   NewDefaultParser(),
		handlers: defaultRedirectionHandlers,
		logger:   zap.NewNop(),
		host:     DefaultHostname,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.registry == nil {
		in.registry = DefaultRegistry()
	}
	return in
}

// Registry exposes the command table, e.g. for completion.
func (in *Interpreter) Registry() *Registry {
	return in.registry
}

var defaultInterpreter = NewInterpreter()

// RunLine runs line with the default interpreter.
func RunLine(line string, fs *vfs.FS, cwd, oldPwd string, history []HistoryEntry) Result {
	return defaultInterpreter.Execute(Request{
		Line:    line,
		FS:      fs,
		Cwd:     cwd,
		OldPwd:  oldPwd,
		History: history,
	})
}

type stage struct {
	name   string
	parsed ParsedCommand
}

// parseStages tokenizes every stage before anything runs, so a syntax error
// never leaves half a pipeline applied.
func (in *Interpreter) parseStages(line string) ([]stage, *Result) {
	raw := SplitPipeline(line)
	stages := make([]stage, 0, len(raw))

	for _, part := range raw {
		tokens, err := in.parser.ParseTokens(part)
		if err != nil {
			var qe *QuoteError
			if errors.As(err, &qe) {
				res := failure("bash: unexpected EOF while looking for matching `" + string(qe.Quote) + "'")
				return nil, &res
			}
			res := failure("bash: " + err.Error())
			return nil, &res
		}
		if len(tokens) == 0 && len(raw) > 1 {
			res := failure("bash: syntax error near unexpected token `|'")
			return nil, &res
		}

		parsed, err := extractRedirections(tokens)
		if err != nil {
			res := failure("bash: syntax error near unexpected token `newline'")
			return nil, &res
		}

		s := stage{parsed: parsed}
		if len(parsed.Args) > 0 {
			s.name = parsed.Args[0]
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func (in *Interpreter) handlerFor(operator string) RedirectionHandler {
	for _, h := range in.handlers {
		if h.CanHandle(operator) {
			return h
		}
	}
	return nil
}

// redirect writes output to the stage's redirection targets. Every target
// but the last is only created or truncated.
func (in *Interpreter) redirect(specs []RedirectionSpec, output string, ok bool, fs *vfs.FS, cwd string, now time.Time) (*vfs.FS, *Result) {
	for i, spec := range specs {
		h := in.handlerFor(spec.Operator)
		if h == nil {
			res := failure("bash: syntax error near unexpected token `" + spec.Operator + "'")
			return nil, &res
		}
		if err := h.Validate(spec); err != nil {
			res := failure("bash: syntax error near unexpected token `newline'")
			return nil, &res
		}

		content := ""
		if i == len(specs)-1 && ok {
			content = output
		}
		appendMode := spec.Operator == ">>" || spec.Operator == "1>>"
		if appendMode && content == "" {
			// Appending nothing only has to make sure the file exists.
			if n := fs.Lookup(cwd, spec.Target); n != nil {
				if n.IsDir() {
					res := failure("bash: " + spec.Target + ": " + msgIsDir)
					return nil, &res
				}
				continue
			}
		}

		next, err := h.Apply(spec, content, fs, cwd, now)
		if err != nil {
			res := failure("bash: " + spec.Target + ": " + errText(err))
			return nil, &res
		}
		fs = next
	}
	return fs, nil
}

// Execute runs one command line. Stage i>0 reads stage i-1's output as
// stdin, and filesystem and directory changes flow forward from stage to
// stage.
func (in *Interpreter) Execute(req Request) Result {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	fs := req.FS
	if fs == nil {
		fs = vfs.DefaultTree(now)
	}
	cwd := req.Cwd
	if cwd == "" {
		cwd = vfs.Home
	}
	startCwd := cwd
	oldPwd := req.OldPwd

	line := strings.TrimSpace(req.Line)
	if line == "" {
		return text("")
	}

	stages, bad := in.parseStages(line)
	if bad != nil {
		in.logger.Debug("rejected command line", zap.String("line", line), zap.String("output", bad.Output))
		return *bad
	}

	var (
		stdin    string
		hasStdin bool
		last     Result
	)

	finish := func(res Result) Result {
		if fs != req.FS {
			res.FS = fs
		} else {
			res.FS = nil
		}
		res.Cwd = ""
		if cwd != startCwd {
			res.Cwd = cwd
		}
		if in.observer != nil {
			in.observer.LineDone(len(stages), fs)
		}
		return res
	}

	for i, st := range stages {
		redirected := len(st.parsed.Redirections) > 0

		res := text("")
		if st.name != "" {
			args := st.parsed.Args[1:]
			opts, params := ParseArgs(args)
			res = in.registry.Dispatch(&Invocation{
				Name:        st.name,
				Args:        args,
				Options:     opts,
				Params:      params,
				FS:          fs,
				Cwd:         cwd,
				OldPwd:      oldPwd,
				Stdin:       stdin,
				HasStdin:    hasStdin,
				History:     req.History,
				Now:         now,
				Host:        in.host,
				Interactive: i == len(stages)-1 && !redirected,
			})
			if in.observer != nil {
				in.observer.CommandDone(st.name, res.Status)
			}
		}

		in.logger.Debug("stage done",
			zap.Int("stage", i),
			zap.String("command", st.name),
			zap.Stringer("status", res.Status),
			zap.Stringer("kind", res.Kind),
			zap.Bool("fs_changed", res.FS != nil && res.FS != fs),
		)

		if res.FS != nil {
			fs = res.FS
		}
		if res.Cwd != "" && res.Cwd != cwd {
			oldPwd = cwd
			cwd = res.Cwd
		}

		if res.Kind != OutputText {
			return finish(res)
		}

		if redirected {
			next, failed := in.redirect(st.parsed.Redirections, res.Output, res.Status == StatusSuccess, fs, cwd, now)
			if failed != nil {
				return finish(*failed)
			}
			fs = next
			if res.Status == StatusSuccess {
				res.Output = ""
			}
		}

		stdin, hasStdin = res.Output, true
		last = res
	}

	return finish(last)
}
