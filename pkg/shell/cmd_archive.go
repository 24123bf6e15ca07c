package shell

import (
	"fmt"
	"strings"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

func registerArchiveCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "tar", Usage: "tar -c|-x|-t [-vz] -f <archive> [-C dir] [file...]", Desc: "an archiving utility", Handler: HandlerFunc(cmdTar)},
		{Name: "zip", Usage: "zip [-r] <archive> <file...>", Desc: "package and compress files", Handler: HandlerFunc(cmdZip)},
		{Name: "unzip", Usage: "unzip [-l] <archive> [-d dir]", Desc: "list and extract files from a zip archive", Handler: HandlerFunc(cmdUnzip)},
	})
}

// entryPaths lists every path inside an archive entry, directories with a
// trailing slash, parents before children.
func entryPaths(n *vfs.Node) []string {
	var out []string
	walkEntry(n, "", func(p string, _ *vfs.Node) {
		out = append(out, p)
	})
	return out
}

// walkEntry calls fn for n and everything below it with its archive path.
func walkEntry(n *vfs.Node, prefix string, fn func(p string, n *vfs.Node)) {
	p := prefix + n.Name()
	if n.IsDir() {
		p += "/"
	}
	fn(p, n)
	for _, child := range n.Children() {
		walkEntry(child, p, fn)
	}
}

// extract merges every archive entry into dir, replacing same-named nodes.
func extract(f *vfs.FS, a *vfs.Archive, dir string) (*vfs.FS, error) {
	for _, e := range a.Entries() {
		next, err := f.Put(vfs.Join(dir, e.Name()), e)
		if err != nil {
			return nil, err
		}
		f = next
	}
	return f, nil
}

// tarArgs accepts the old dashless form, as in "tar cvf a.tar dir".
func tarArgs(args []string) []string {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") && strings.Trim(args[0], "cxtvzfC") == "" {
		return append([]string{"-" + args[0]}, args[1:]...)
	}
	return args
}

func cmdTar(inv *Invocation) Result {
	opts, vals, params := ScanArgs(tarArgs(inv.Args), "fC")

	var modes []string
	for _, m := range []string{"c", "x", "t"} {
		if opts.Has(m) {
			modes = append(modes, m)
		}
	}
	if len(modes) != 1 {
		return failure("tar: You must specify one of the '-Acdtrux', '--delete' or '--test-label' options\nTry 'tar --help' or 'tar --usage' for more information.")
	}

	archive, ok := vals.Last("f")
	if !ok || archive == "" {
		if modes[0] == "c" {
			return failure("tar: Refusing to write archive contents to terminal (missing -f option?)")
		}
		return failure("tar: Refusing to read archive contents from terminal (missing -f option?)")
	}

	base := inv.Cwd
	if dir, ok := vals.Last("C"); ok {
		n := inv.lookup(dir)
		if n == nil || !n.IsDir() {
			return failure(fmt.Sprintf("tar: %s: Cannot open: %s", dir, msgNoSuchFile))
		}
		base = inv.abs(dir)
	}
	verbose := opts.Has("v")

	if modes[0] == "c" {
		if len(params) == 0 {
			return failure("tar: Cowardly refusing to create an empty archive\nTry 'tar --help' or 'tar --usage' for more information.")
		}
		var rep report
		var entries []*vfs.Node
		for _, p := range params {
			n := inv.FS.Lookup(base, p)
			if n == nil {
				rep.fail("tar: %s: Cannot stat: %s", p, msgNoSuchFile)
				continue
			}
			entry := n.WithName(vfs.Base(vfs.Normalize(base, p)))
			entries = append(entries, entry)
			if verbose {
				rep.lines = append(rep.lines, entryPaths(entry)...)
			}
		}
		next, err := inv.FS.Put(inv.abs(archive), vfs.NewArchiveFile(vfs.Base(archive), vfs.NewArchive(vfs.FormatTar, entries...), inv.Now))
		if err != nil {
			return failure(fmt.Sprintf("tar: %s: Cannot open: %s", archive, errText(err)))
		}
		rep.fs = next
		return rep.result()
	}

	n := inv.follow(archive)
	if n == nil {
		return failure(fmt.Sprintf("tar: %s: Cannot open: %s", archive, msgNoSuchFile))
	}
	a := n.Archive()
	if a == nil || a.Format() != vfs.FormatTar {
		return failure("tar: This does not look like a tar archive\ntar: Exiting with failure status due to previous errors")
	}

	if modes[0] == "t" {
		return text(joinLines(a.Names()))
	}

	next, err := extract(inv.FS, a, base)
	if err != nil {
		return failure(fmt.Sprintf("tar: %s: Cannot open: %s", archive, errText(err)))
	}
	res := Result{FS: next}
	if verbose {
		var lines []string
		for _, e := range a.Entries() {
			lines = append(lines, entryPaths(e)...)
		}
		res.Output = joinLines(lines)
	}
	return res
}

func cmdZip(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("zip error: Invalid command arguments (nothing to select from)")
	}

	name := inv.Params[0]
	if !strings.Contains(vfs.Base(name), ".") {
		name += ".zip"
	}
	if len(inv.Params) == 1 {
		return failure(fmt.Sprintf("zip error: Nothing to do! (%s)", name))
	}

	var rep report
	var entries []*vfs.Node
	var targets []string
	for _, p := range inv.Params[1:] {
		n := inv.lookup(p)
		if n == nil {
			rep.add("\tzip warning: name not matched: " + p)
			continue
		}
		entry := n.WithName(vfs.Base(inv.abs(p)))
		entries = append(entries, entry)
		for _, ep := range entryPaths(entry) {
			method := "deflated 0%"
			if strings.HasSuffix(ep, "/") {
				method = "stored 0%"
			}
			rep.add(fmt.Sprintf("  adding: %s (%s)", ep, method))
		}
		targets = append(targets, p)
	}

	if len(entries) == 0 {
		rep.fail("zip error: Nothing to do! (%s)", name)
		return rep.result()
	}

	next, err := inv.FS.Put(inv.abs(name), vfs.NewArchiveFile(vfs.Base(name), vfs.NewArchive(vfs.FormatZip, entries...), inv.Now))
	if err != nil {
		return failure(fmt.Sprintf("zip I/O error: %s: %s", name, errText(err)))
	}

	res := Result{Output: joinLines(rep.lines), FS: next}
	res.Async = &AsyncOp{Type: AsyncZip, Targets: targets}
	return res
}

func cmdUnzip(inv *Invocation) Result {
	opts, vals, params := ScanArgs(inv.Args, "d")
	if len(params) == 0 {
		return failure("UnZip 6.00 of 20 April 2009\nUsage: unzip [-l] file[.zip] [-d exdir]")
	}

	name := params[0]
	n := inv.follow(name)
	if n == nil && !strings.HasSuffix(name, ".zip") {
		if alt := inv.follow(name + ".zip"); alt != nil {
			name, n = name+".zip", alt
		}
	}
	if n == nil || n.IsDir() {
		return failure(fmt.Sprintf("unzip:  cannot find or open %s, %s.zip or %s.ZIP.", params[0], params[0], params[0]))
	}
	a := n.Archive()
	if a == nil || a.Format() != vfs.FormatZip {
		return failure(fmt.Sprintf("Archive:  %s\n  End-of-central-directory signature not found.\nunzip:  cannot find zipfile directory in %s", name, name))
	}

	if opts.Has("l") {
		lines := []string{
			"Archive:  " + name,
			"  Length      Date    Time    Name",
			"---------  ---------- -----   ----",
		}
		var total int64
		files := 0
		for _, e := range a.Entries() {
			walkEntry(e, "", func(p string, node *vfs.Node) {
				size := int64(0)
				if !node.IsDir() {
					size = node.Size()
					files++
				}
				total += size
				lines = append(lines, fmt.Sprintf("%9d  %s   %s", size, node.UpdatedAt().Format("2006-01-02 15:04"), p))
			})
		}
		lines = append(lines,
			"---------                     -------",
			fmt.Sprintf("%9d                     %d %s", total, files, plural(files, "file", "files")))
		return text(joinLines(lines))
	}

	dest := inv.Cwd
	next := inv.FS
	if dir, ok := vals.Last("d"); ok {
		dest = inv.abs(dir)
		var err error
		if next, err = next.MkdirAll(dest, inv.Now); err != nil {
			return failure(fmt.Sprintf("checkdir:  cannot create extraction directory: %s", dir))
		}
	}

	lines := []string{"Archive:  " + name}
	var targets []string
	for _, e := range a.Entries() {
		walkEntry(e, "", func(p string, node *vfs.Node) {
			if node.IsDir() {
				lines = append(lines, "   creating: "+p)
			} else {
				lines = append(lines, "  inflating: "+p)
			}
		})
		targets = append(targets, e.Name())
	}

	next, err := extract(next, a, dest)
	if err != nil {
		return failure(fmt.Sprintf("unzip: cannot extract into %s: %s", dest, errText(err)))
	}

	return Result{
		Output: joinLines(lines),
		FS:     next,
		Async:  &AsyncOp{Type: AsyncUnzip, Targets: targets},
	}
}
