package shell

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

func registerSearchCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "grep", Usage: "grep [-ivwxoncqlrRhHE] [-m N] [-e PATTERN] PATTERN [file...]", Desc: "print lines that match patterns", Handler: HandlerFunc(cmdGrep)},
		{Name: "find", Usage: "find [path...] [-name|-iname GLOB] [-type f|d] [-maxdepth N]", Desc: "search for files in a directory hierarchy", Handler: HandlerFunc(cmdFind)},
	})
}

// grepPattern builds the matcher. Without -E the pattern is a literal
// string; -w and -x wrap it in word or line anchors.
func grepPattern(patterns []string, opts Options) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !opts.Has("E", "extended-regexp") {
			p = regexp.QuoteMeta(p)
		}
		parts = append(parts, "(?:"+p+")")
	}
	expr := strings.Join(parts, "|")

	switch {
	case opts.Has("x", "line-regexp"):
		expr = "^(?:" + expr + ")$"
	case opts.Has("w", "word-regexp"):
		expr = `\b(?:` + expr + `)\b`
	}
	if opts.Has("i", "ignore-case") {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

type grepTarget struct {
	name    string
	content string
}

func cmdGrep(inv *Invocation) Result {
	opts, vals, params := ScanArgs(inv.Args, "me")

	patterns := vals["e"]
	if len(patterns) == 0 {
		if len(params) == 0 {
			return failure("Usage: grep [OPTION]... PATTERNS [FILE]...")
		}
		patterns, params = params[:1], params[1:]
	}

	re, err := grepPattern(patterns, opts)
	if err != nil {
		return failure("grep: Invalid regular expression")
	}

	maxCount := -1
	if v, ok := vals.Last("m"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return failure("grep: invalid max count")
		}
		maxCount = n
	}

	recursive := opts.Has("r", "R", "recursive")
	var rep report
	var targets []grepTarget

	if len(params) == 0 && !recursive {
		targets = append(targets, grepTarget{name: "(standard input)", content: inv.Stdin})
	}
	implicitDot := len(params) == 0 && recursive
	if implicitDot {
		params = []string{"."}
	}

	for _, t := range params {
		n := inv.follow(t)
		switch {
		case n == nil:
			rep.fail("grep: %s: %s", t, msgNoSuchFile)
		case !n.IsDir():
			targets = append(targets, grepTarget{name: t, content: n.Content()})
		case !recursive:
			rep.fail("grep: %s: %s", t, msgIsDir)
		default:
			rootAbs := inv.abs(t)
			_ = inv.FS.Walk(rootAbs, func(abs string, node *vfs.Node) error {
				if node.IsDir() || node.IsSymlink() {
					return nil
				}
				name := display(t, rootAbs, abs)
				if implicitDot {
					name = strings.TrimPrefix(name, "./")
				}
				targets = append(targets, grepTarget{name: name, content: node.Content()})
				return nil
			})
		}
	}

	prefix := len(targets) > 1 || (recursive && len(targets) > 0 && targets[0].name != params[0])
	switch {
	case opts.Has("h", "no-filename"):
		prefix = false
	case opts.Has("H", "with-filename"):
		prefix = true
	}

	invert := opts.Has("v", "invert-match")
	matched := false

	for _, target := range targets {
		lead := ""
		if prefix {
			lead = target.name + ":"
		}

		count := 0
		var out []string
		for i, line := range splitLines(target.content) {
			if maxCount >= 0 && count >= maxCount {
				break
			}
			if re.MatchString(line) == invert {
				continue
			}
			count++

			num := ""
			if opts.Has("n", "line-number") {
				num = strconv.Itoa(i+1) + ":"
			}
			if opts.Has("o", "only-matching") && !invert {
				for _, m := range re.FindAllString(line, -1) {
					if m != "" {
						out = append(out, lead+num+m)
					}
				}
				continue
			}
			out = append(out, lead+num+line)
		}

		if count > 0 {
			matched = true
		}
		switch {
		case opts.Has("q", "quiet", "silent"):
			if matched {
				return text("")
			}
		case opts.Has("l", "files-with-matches"):
			if count > 0 {
				rep.add(target.name)
			}
		case opts.Has("c", "count"):
			rep.add(lead + strconv.Itoa(count))
		default:
			rep.lines = append(rep.lines, out...)
		}
	}

	return rep.result()
}

// globPattern turns a shell glob with * and ? into an anchored regexp.
// A pattern without wildcards matches the name exactly.
func globPattern(glob string, fold bool) *regexp.Regexp {
	var b strings.Builder
	if fold {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

type findFilter struct {
	name     *regexp.Regexp
	kind     string
	maxDepth int
}

func (f findFilter) match(n *vfs.Node, name string) bool {
	if f.name != nil && !f.name.MatchString(name) {
		return false
	}
	switch f.kind {
	case "f":
		return !n.IsDir()
	case "d":
		return n.IsDir()
	}
	return true
}

func parseFind(args []string) ([]string, findFilter, error) {
	filter := findFilter{maxDepth: -1}
	var paths []string

	i := 0
	for ; i < len(args) && !strings.HasPrefix(args[i], "-"); i++ {
		paths = append(paths, args[i])
	}

	for ; i < len(args); i++ {
		pred := args[i]
		switch pred {
		case "-name", "-iname", "-type", "-maxdepth":
		default:
			return nil, filter, fmt.Errorf("find: unknown predicate '%s'", pred)
		}
		if i+1 >= len(args) {
			return nil, filter, fmt.Errorf("find: missing argument to '%s'", pred)
		}
		i++
		val := args[i]

		switch pred {
		case "-name", "-iname":
			filter.name = globPattern(val, pred == "-iname")
		case "-type":
			if val != "f" && val != "d" {
				return nil, filter, fmt.Errorf("find: Unknown argument to -type: %s", val)
			}
			filter.kind = val
		case "-maxdepth":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return nil, filter, fmt.Errorf("find: Expected a positive decimal integer argument to -maxdepth, but got '%s'", val)
			}
			filter.maxDepth = n
		}
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}
	return paths, filter, nil
}

func cmdFind(inv *Invocation) Result {
	paths, filter, err := parseFind(inv.Args)
	if err != nil {
		return failure(err.Error())
	}

	var rep report
	for _, p := range paths {
		if inv.lookup(p) == nil {
			rep.fail("find: '%s': %s", p, msgNoSuchFile)
			continue
		}

		rootAbs := inv.abs(p)
		rootDepth := len(vfs.Split(rootAbs))
		_ = inv.FS.Walk(rootAbs, func(abs string, n *vfs.Node) error {
			depth := len(vfs.Split(abs)) - rootDepth
			name := n.Name()
			if abs == rootAbs {
				name = vfs.Base(p)
			}
			if filter.match(n, name) {
				rep.add(display(p, rootAbs, abs))
			}
			if filter.maxDepth >= 0 && depth >= filter.maxDepth {
				return vfs.SkipDir
			}
			return nil
		})
	}
	return rep.result()
}
