// vsh is a practice shell over an in-memory Linux-like filesystem.
//
// Usage:
//
//	vsh [flags]              interactive session
//	vsh -c "<line>" [-json]  run one line and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/config"
	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/logging"
	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/metrics"
	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/vfsmount"
	interp "github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

type options struct {
	configPath string
	line       string
	asJSON     bool
	snapshot   string
	save       string
	export     string
	cwd        string
	seedFile   string
	seedDir    string
	mountDir   string
	metricsOut string
	hostname   string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.line, "c", "", "Run one command line and exit")
	flag.BoolVar(&o.asJSON, "json", false, "With -c, print the result as JSON")
	flag.StringVar(&o.snapshot, "fs", "", "Start from a JSON tree snapshot")
	flag.StringVar(&o.save, "save", "", "Write the final tree as a JSON snapshot")
	flag.StringVar(&o.export, "export", "", "Copy the final home directory to this host directory")
	flag.StringVar(&o.cwd, "cwd", vfs.Home, "Initial working directory")
	flag.StringVar(&o.seedFile, "seed", "", "YAML list of {path, content} files to add")
	flag.StringVar(&o.seedDir, "seed-dir", "", "Host directory imported into the home directory")
	flag.StringVar(&o.mountDir, "mount", "", "Expose the tree read-only at this directory (FUSE)")
	flag.StringVar(&o.metricsOut, "metrics-out", "", "Write metrics in text format on exit")
	flag.StringVar(&o.hostname, "hostname", "", "Host name shown in the prompt")
	flag.Parse()

	code, err := run(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vsh:", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(o options) (int, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return 1, err
	}
	applyFlags(cfg, o)
	if err := cfg.Validate(); err != nil {
		return 1, err
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return 1, fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	m := metrics.New()
	defer func() {
		if cfg.Metrics.Output == "" {
			return
		}
		if err := m.Dump(cfg.Metrics.Output); err != nil {
			logger.Warn("metrics dump failed", zap.Error(err))
		}
	}()

	tree, err := buildTree(cfg, o.snapshot, time.Now())
	if err != nil {
		return 1, err
	}

	in := interp.NewInterpreter(
		interp.WithLogger(logger),
		interp.WithObserver(m),
		interp.WithHostname(cfg.Hostname),
	)

	if o.line != "" && o.asJSON {
		res := in.Execute(interp.Request{Line: o.line, FS: tree, Cwd: o.cwd})
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return 1, fmt.Errorf("encode result: %w", err)
		}
		return exitCode(res), nil
	}

	var reader shell.LineReader
	if o.line == "" {
		rl, err := newReadline(in.Registry().Names())
		if err != nil {
			return 1, fmt.Errorf("init readline: %w", err)
		}
		defer rl.Close()
		reader = rl
	} else {
		reader = shell.NewLineReader(os.Stdin)
	}

	sess := shell.New(reader, os.Stdout, os.Stderr,
		shell.WithInterpreter(in),
		shell.WithLogger(logger),
		shell.WithFS(tree),
		shell.WithCwd(o.cwd),
		shell.WithHostname(cfg.Hostname),
		shell.WithProgress(shell.Progress{Duration: cfg.Async.Duration, Steps: cfg.Async.Steps, Sleep: time.Sleep}),
		shell.WithAsyncHook(m.RecordAsync),
	)

	ctx := logging.WithSession(logging.WithContext(context.Background(), logger), sess.ID())
	log := logging.FromContext(ctx)

	if cfg.Mount.Dir != "" {
		server, err := vfsmount.Mount(cfg.Mount.Dir, sess.Snapshot, log)
		if err != nil {
			return 1, fmt.Errorf("mount %s: %w", cfg.Mount.Dir, err)
		}
		defer func() {
			if err := server.Unmount(); err != nil {
				log.Warn("unmount failed", zap.String("dir", cfg.Mount.Dir), zap.Error(err))
			}
		}()
	}

	code := 0
	if o.line != "" {
		res, err := sess.Exec(o.line)
		if err != nil && !errors.Is(err, shell.ErrExit) {
			return 1, err
		}
		code = exitCode(res)
	} else {
		log.Info("session started", zap.String("hostname", cfg.Hostname))
		if err := sess.Run(); err != nil {
			return 1, err
		}
	}

	if err := persist(sess.Snapshot(), o); err != nil {
		return 1, err
	}
	log.Debug("session finished", zap.Int("commands", len(sess.History())))
	return code, nil
}

func applyFlags(cfg *config.Config, o options) {
	if o.seedFile != "" {
		cfg.Seed.File = o.seedFile
	}
	if o.seedDir != "" {
		cfg.Seed.Dir = o.seedDir
	}
	if o.mountDir != "" {
		cfg.Mount.Dir = o.mountDir
	}
	if o.metricsOut != "" {
		cfg.Metrics.Output = o.metricsOut
	}
	if o.hostname != "" {
		cfg.Hostname = o.hostname
	}
}

func exitCode(res interp.Result) int {
	if res.Status == interp.StatusError {
		return 1
	}
	return 0
}

// lineReader turns ^C into an empty line instead of ending the session.
type lineReader struct {
	*readline.Instance
}

func (r lineReader) Readline() (string, error) {
	line, err := r.Instance.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}

func newReadline(commands []string) (lineReader, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands)+3)
	for _, name := range append(commands, "exit", "logout", "type") {
		items = append(items, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return lineReader{}, err
	}
	return lineReader{rl}, nil
}
