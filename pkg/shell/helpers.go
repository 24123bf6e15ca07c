package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

const (
	msgNoSuchFile = "No such file or directory"
	msgIsDir      = "Is a directory"
	msgNotDir     = "Not a directory"
	msgExists     = "File exists"
	msgNotEmpty   = "Directory not empty"
	msgNotAllowed = "Operation not permitted"
)

// errText maps a vfs error to the text a shell would print for it.
func errText(err error) string {
	switch {
	case errors.Is(err, vfs.ErrIsDir):
		return msgIsDir
	case errors.Is(err, vfs.ErrNotDir):
		return msgNotDir
	case errors.Is(err, vfs.ErrNotEmpty):
		return msgNotEmpty
	case errors.Is(err, vfs.ErrRoot):
		return msgNotAllowed
	case errors.Is(err, fs.ErrExist):
		return msgExists
	}
	return msgNoSuchFile
}

// splitLines splits s into lines. A trailing newline does not start an
// extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// report gathers the output of a multi-target command. Failing targets add an
// error line and the command carries on with the rest.
type report struct {
	lines  []string
	failed bool
	fs     *vfs.FS
}

func (r *report) add(line string) {
	r.lines = append(r.lines, line)
}

func (r *report) fail(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
	r.failed = true
}

func (r *report) result() Result {
	res := Result{Output: joinLines(r.lines), FS: r.fs}
	if r.failed {
		res.Status = StatusError
	}
	return res
}

// source is one named input of a text filter.
type source struct {
	name    string
	content string
}

// inputs reads the named files, or stdin when there are none. Unreadable
// files are reported on r and skipped.
func (inv *Invocation) inputs(cmd string, files []string, r *report) []source {
	if len(files) == 0 {
		return []source{{name: "", content: inv.Stdin}}
	}

	out := make([]source, 0, len(files))
	for _, name := range files {
		if name == "-" {
			out = append(out, source{name: "(standard input)", content: inv.Stdin})
			continue
		}
		n := inv.follow(name)
		switch {
		case n == nil:
			r.fail("%s: %s: %s", cmd, name, msgNoSuchFile)
		case n.IsDir():
			r.fail("%s: %s: %s", cmd, name, msgIsDir)
		default:
			out = append(out, source{name: name, content: n.Content()})
		}
	}
	return out
}

// maxLinkHops bounds symlink chains so a loop resolves to nothing.
const maxLinkHops = 8

// follow resolves p and dereferences symlinks.
func (inv *Invocation) follow(p string) *vfs.Node {
	abs := inv.abs(p)
	for hop := 0; hop < maxLinkHops; hop++ {
		n := inv.FS.Lookup("/", abs)
		if n == nil || !n.IsSymlink() {
			return n
		}
		abs = vfs.Normalize(vfs.Dir(abs), n.LinkTarget())
	}
	return nil
}

// display renders an absolute path relative to the root the user named,
// the way find and grep -r print walked paths.
func display(named, rootAbs, abs string) string {
	if abs == rootAbs {
		return named
	}
	rel := strings.TrimPrefix(abs, rootAbs)
	if rootAbs == "/" {
		rel = abs
	}
	if named == "/" {
		return rel
	}
	return strings.TrimSuffix(named, "/") + rel
}
