package shell

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	interp "github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

var testNow = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

type harness struct {
	sh       *Shell
	out, err *bytes.Buffer
}

func newHarness(t *testing.T, input string, opts ...Option) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return testNow }),
		WithProgress(Progress{Steps: 2}),
	}
	h.sh = New(NewLineReader(strings.NewReader(input)), h.out, h.err, append(base, opts...)...)
	return h
}

func (h *harness) file(t *testing.T, p string) string {
	t.Helper()
	n := h.sh.Snapshot().Lookup(h.sh.Cwd(), p)
	if n == nil {
		t.Fatalf("%s does not exist", p)
	}
	return n.Content()
}

func TestExecAppliesState(t *testing.T) {
	h := newHarness(t, "")

	if _, err := h.sh.Exec("mkdir p"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := h.sh.Exec("cd p"); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	if h.sh.Cwd() != "/home/student/p" {
		t.Errorf("unexpected cwd %s", h.sh.Cwd())
	}
	if got := h.sh.Prompt(); got != "student@learning-lab:~/p$ " {
		t.Errorf("unexpected prompt %q", got)
	}

	h.sh.Exec("cd -")
	if h.sh.Cwd() != vfs.Home {
		t.Errorf("cd - should return home, got %s", h.sh.Cwd())
	}
	if got := strings.TrimSpace(h.out.String()); got != vfs.Home {
		t.Errorf("cd - should print the directory, got %q", got)
	}
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		cwd, want string
	}{
		{vfs.Home, "student@box:~$ "},
		{"/etc", "student@box:/etc$ "},
		{"/home/studentx", "student@box:/home/studentx$ "},
	}
	for _, tt := range tests {
		h := newHarness(t, "", WithHostname("box"), WithCwd(tt.cwd))
		if got := h.sh.Prompt(); got != tt.want {
			t.Errorf("%s: expected %q got %q", tt.cwd, tt.want, got)
		}
	}
}

func TestRunLoop(t *testing.T) {
	h := newHarness(t, "echo hi\n\ncd /tmp\npwd\ncat nope\nexit\necho never\n")

	if err := h.sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := h.out.String()
	for _, want := range []string{"student@learning-lab:~$ hi\n", "student@learning-lab:/tmp$ /tmp\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "never") {
		t.Errorf("lines after exit must not run")
	}
	if got := h.err.String(); got != "cat: nope: No such file or directory\n" {
		t.Errorf("unexpected stderr %q", got)
	}

	var commands []string
	for _, e := range h.sh.History() {
		commands = append(commands, e.Command)
	}
	want := []string{"echo hi", "cd /tmp", "pwd", "cat nope", "exit"}
	if strings.Join(commands, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected history %v", commands)
	}
}

func TestRunEOF(t *testing.T) {
	h := newHarness(t, "touch a")
	if err := h.sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.sh.Snapshot().Lookup(vfs.Home, "a") == nil {
		t.Errorf("last line without newline should still run")
	}
}

func TestTypeBuiltin(t *testing.T) {
	h := newHarness(t, "")

	h.sh.Exec("type exit ls frob")
	if got := h.out.String(); got != "exit is a shell builtin\nls is /usr/bin/ls\n" {
		t.Errorf("unexpected output %q", got)
	}
	if got := h.err.String(); got != "bash: type: frob: not found\n" {
		t.Errorf("unexpected stderr %q", got)
	}
}

func TestEditorOverlay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		file  string
		want  string
	}{
		{name: "new file", input: "nano note.txt\nfirst\nsecond\n:wq\n", file: "note.txt", want: "first\nsecond"},
		{name: "stdin seed", input: "echo seed | nano n.txt\nmore\n:wq\n", file: "n.txt", want: "seed\nmore"},
		{name: "existing content", input: "echo old > e.txt\nvim e.txt\nnew\n:wq\n", file: "e.txt", want: "old\nnew"},
		{name: "drop line", input: "nano d.txt\nkeep\ndrop\n:d\n:wq\n", file: "d.txt", want: "keep"},
		{name: "crontab", input: "crontab -e\n* * * * * date\n:wq\n", file: "/home/student/.crontab", want: "* * * * * date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.input)
			if err := h.sh.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := h.file(t, tt.file); got != tt.want {
				t.Errorf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestEditorQuitDiscards(t *testing.T) {
	h := newHarness(t, "nano q.txt\ntext\n:q\n")
	if err := h.sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.sh.Snapshot().Lookup(vfs.Home, "q.txt") != nil {
		t.Errorf(":q must not write the file")
	}
}

func TestAsyncProgress(t *testing.T) {
	var hooked []interp.AsyncType
	h := newHarness(t, "", WithAsyncHook(func(a interp.AsyncType) { hooked = append(hooked, a) }))

	h.sh.Exec("touch a.txt")
	h.sh.Exec("zip out a.txt")
	h.sh.Exec("unzip -d x out.zip")

	out := h.out.String()
	for _, want := range []string{
		"Compressing a.txt [##########          ]  50%\n",
		"Compressing a.txt [####################] 100%\n",
		"Extracting a.txt [####################] 100%\n",
		"  adding: a.txt (deflated 0%)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if len(hooked) != 2 || hooked[0] != interp.AsyncZip || hooked[1] != interp.AsyncUnzip {
		t.Errorf("unexpected hook calls %v", hooked)
	}
	if h.sh.Snapshot().Lookup(vfs.Home, "x/a.txt") == nil {
		t.Errorf("unzip result was not committed")
	}
}

func TestProgressSleeps(t *testing.T) {
	var waits []time.Duration
	p := Progress{Duration: time.Second, Steps: 4, Sleep: func(d time.Duration) { waits = append(waits, d) }}

	var buf bytes.Buffer
	p.Render(&buf, &interp.AsyncOp{Type: interp.AsyncZip, Targets: []string{"a"}})

	if len(waits) != 4 || waits[0] != 250*time.Millisecond {
		t.Errorf("unexpected waits %v", waits)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("expected 4 lines got %d", lines)
	}
}

func TestClearScreen(t *testing.T) {
	h := newHarness(t, "")
	h.sh.Exec("clear")
	if h.out.String() != "\033[H\033[2J" {
		t.Errorf("unexpected output %q", h.out.String())
	}
}

func TestSnapshotConcurrentReads(t *testing.T) {
	h := newHarness(t, "")

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				if h.sh.Snapshot() == nil {
					t.Error("snapshot must never be nil")
					return
				}
			}
		}
	}()

	for i := 0; i < 50; i++ {
		h.sh.Exec("touch f")
	}
	close(done)
	wg.Wait()
}
