package shell

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

func TestSystemInfo(t *testing.T) {
	runCases(t, []cmdCase{
		{name: "whoami", line: "whoami", want: "student"},
		{name: "hostname", line: "hostname", want: "learning-lab"},
		{name: "id", line: "id", want: "uid=1000(student) gid=1000(student) groups=1000(student),27(sudo)"},
		{name: "groups", line: "groups", want: "student sudo"},
		{name: "uname", line: "uname", want: "Linux"},
		{name: "uname -r", line: "uname -r", want: "5.15.0-91-generic"},
		{name: "uname -snm", line: "uname -snm", want: "Linux learning-lab x86_64"},
		{name: "date", line: "date", want: "Fri Mar  1 10:30:00 UTC 2024"},
		{name: "date format", line: "date +%Y-%m-%d", want: "2024-03-01"},
		{name: "pkill known", line: "pkill nginx", want: ""},
		{name: "pkill unknown", line: "pkill nope", want: "", status: StatusError},
		{name: "nginx version", line: "nginx -v", want: "nginx version: nginx/1.18.0 (Ubuntu)"},
		{
			name: "nginx test",
			line: "nginx -t",
			want: "nginx: the configuration file /etc/nginx/nginx.conf syntax is ok\nnginx: configuration file /etc/nginx/nginx.conf test is successful",
		},
		{name: "systemctl is-active", line: "systemctl is-active cron", want: "active"},
		{name: "systemctl inactive", line: "systemctl is-active mysql", want: "inactive", status: StatusError},
		{name: "systemctl unknown", line: "systemctl status foo", want: "Unit foo.service could not be found.", status: StatusError},
		{name: "systemctl no unit", line: "systemctl status", want: "Too few arguments.", status: StatusError},
		{name: "apt bad verb", line: "apt frob", want: "E: Invalid operation frob", status: StatusError},
		{name: "apt-get alias", line: "apt-get install tree", want: "Reading package lists... Done\nBuilding dependency tree... Done\nSetting up tree ..."},
	})
}

func TestHostnameOption(t *testing.T) {
	in := NewInterpreter(WithLogger(zaptest.NewLogger(t)), WithHostname("box"))
	res := in.Execute(Request{Line: "uname -n", FS: vfs.DefaultTree(testNow), Now: testNow})
	if res.Output != "box" {
		t.Errorf("expected box got %q", res.Output)
	}
}

func TestSystemctlStatus(t *testing.T) {
	s := newTestSession(t)

	res := s.mustRun("systemctl status nginx")
	if !strings.HasPrefix(res.Output, "● nginx.service - ") {
		t.Errorf("unexpected header %q", res.Output)
	}
	if !strings.Contains(res.Output, "Active: active (running) since Tue 2024-02-27 06:30:00 UTC") {
		t.Errorf("unexpected status %q", res.Output)
	}

	res = s.mustRun("systemctl status mysql.service")
	if !strings.Contains(res.Output, "Active: inactive (dead)") {
		t.Errorf("unexpected status %q", res.Output)
	}
}

func TestNginxMissingConfig(t *testing.T) {
	s := newTestSession(t)
	s.mustRun("rm /etc/nginx/nginx.conf")

	res := s.run("nginx -t")
	if res.Status != StatusError || !strings.Contains(res.Output, "test failed") {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCrontab(t *testing.T) {
	s := newTestSession(t, vfs.SeedFile{Path: "jobs", Content: "* * * * * echo hi\n"})

	res := s.run("crontab -l")
	if res.Output != "no crontab for student" || res.Status != StatusError {
		t.Errorf("unexpected result %+v", res)
	}

	s.mustRun("crontab jobs")
	if res := s.mustRun("crontab -l"); res.Output != "* * * * * echo hi" {
		t.Errorf("unexpected listing %q", res.Output)
	}

	res = s.run("crontab -e")
	if res.Kind != OutputOpenEditor || res.EditorPath != "/home/student/.crontab" {
		t.Errorf("unexpected result %+v", res)
	}

	s.mustRun("crontab -r")
	if s.node(".crontab") != nil {
		t.Errorf("crontab -r left the file behind")
	}
}

func TestProcessListing(t *testing.T) {
	s := newTestSession(t)

	for _, line := range []string{"ps", "ps aux", "top", "pstree", "uptime", "free -h", "df -h", "systemctl"} {
		res := s.mustRun(line)
		if res.Output == "" {
			t.Errorf("%s: expected output", line)
		}
	}

	if res := s.mustRun("ps aux | grep nginx | wc -l"); strings.TrimSpace(res.Output) != "2" {
		t.Errorf("expected two nginx processes got %q", res.Output)
	}
}

func TestHistory(t *testing.T) {
	s := newTestSession(t)
	s.mustRun("ls")
	s.mustRun("pwd")

	if res := s.mustRun("history"); res.Output != "    1  ls\n    2  pwd" {
		t.Errorf("unexpected history %q", res.Output)
	}
	if res := s.mustRun("history 1"); res.Output != "    3  history" {
		t.Errorf("unexpected history %q", res.Output)
	}
	if res := s.run("history x"); res.Status != StatusError {
		t.Errorf("expected an error for a non-numeric count")
	}
}

func TestHelpManSudo(t *testing.T) {
	runCases(t, []cmdCase{
		{name: "man", line: "man ls", want: "NAME\n       ls - list directory contents\n\nSYNOPSIS\n       ls [-alR1] [file...]"},
		{name: "man missing", line: "man nope", want: "No manual entry for nope", status: StatusError},
		{name: "man usage", line: "man", want: "What manual page do you want?\nFor example, try 'man man'.", status: StatusError},
		{name: "sudo", line: "sudo whoami", want: "student"},
		{name: "sudo unknown", line: "sudo nope", want: "sudo: nope: command not found", status: StatusError},
		{name: "sudo usage", line: "sudo", want: "usage: sudo command [args...]", status: StatusError},
	})

	s := newTestSession(t)
	res := s.mustRun("help")
	for _, name := range []string{"grep", "tar", "systemctl"} {
		if !strings.Contains(res.Output, "  "+name) {
			t.Errorf("help does not list %s", name)
		}
	}

	s.mustRun("sudo mkdir /opt/app")
	if n := s.fs.Lookup("/", "/opt/app"); n == nil || !n.IsDir() {
		t.Errorf("sudo should pass filesystem changes through")
	}
}
