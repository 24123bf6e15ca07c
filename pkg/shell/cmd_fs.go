package shell

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

func registerFSCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "ls", Usage: "ls [-alR1] [file...]", Desc: "list directory contents", Handler: HandlerFunc(cmdLs)},
		{Name: "mkdir", Usage: "mkdir [-p] <dir...>", Desc: "make directories", Handler: HandlerFunc(cmdMkdir)},
		{Name: "rmdir", Usage: "rmdir <dir...>", Desc: "remove empty directories", Handler: HandlerFunc(cmdRmdir)},
		{Name: "touch", Usage: "touch <file...>", Desc: "change file timestamps", Handler: HandlerFunc(cmdTouch)},
		{Name: "cat", Usage: "cat [-n] [file...]", Desc: "concatenate files and print on the standard output", Handler: HandlerFunc(cmdCat)},
		{Name: "rm", Usage: "rm [-rRf] <file...>", Desc: "remove files or directories", Handler: HandlerFunc(cmdRm)},
		{Name: "cp", Usage: "cp [-r] <src...> <dst>", Desc: "copy files and directories", Handler: HandlerFunc(cmdCp)},
		{Name: "mv", Usage: "mv <src...> <dst>", Desc: "move (rename) files", Handler: HandlerFunc(cmdMv)},
		{Name: "ln", Usage: "ln [-s] <target> [link]", Desc: "make links between files", Handler: HandlerFunc(cmdLn)},
		{Name: "chmod", Usage: "chmod [-R] <mode> <file...>", Desc: "change file mode bits", Handler: HandlerFunc(cmdChmod)},
		{Name: "file", Usage: "file <file...>", Desc: "determine file type", Handler: HandlerFunc(cmdFile)},
		{Name: "tree", Usage: "tree [-a] [dir]", Desc: "list contents of directories in a tree-like format", Handler: HandlerFunc(cmdTree)},
		{Name: "du", Usage: "du [-sh] [path...]", Desc: "estimate file space usage", Handler: HandlerFunc(cmdDu)},
		{Name: "less", Usage: "less <file>", Desc: "view file contents", Handler: HandlerFunc(cmdPager("less"))},
		{Name: "more", Usage: "more <file>", Desc: "file perusal filter", Handler: HandlerFunc(cmdPager("more"))},
		{Name: "nano", Aliases: []string{"vi", "vim"}, Usage: "nano <file>", Desc: "edit a file", Handler: HandlerFunc(cmdNano)},
	})
}

const lsTimeLayout = "Jan _2 15:04"

func lsLong(name string, n *vfs.Node) string {
	line := fmt.Sprintf("%s 1 student student %5d %s %s",
		n.Permissions(), n.Size(), n.UpdatedAt().Format(lsTimeLayout), name)
	if n.IsSymlink() {
		line += " -> " + n.LinkTarget()
	}
	return line
}

func visible(n *vfs.Node, all bool) bool {
	return all || !strings.HasPrefix(n.Name(), ".")
}

func cmdLs(inv *Invocation) Result {
	all := inv.Options.Has("a", "all")
	long := inv.Options.Has("l")
	recursive := inv.Options.Has("R", "recursive")
	onePerLine := long || inv.Options.Has("1") || !inv.Interactive

	targets := inv.Params
	if len(targets) == 0 {
		targets = []string{"."}
	}

	var rep report
	var files []string
	var dirs []string

	for _, t := range targets {
		n := inv.lookup(t)
		if n == nil {
			rep.fail("ls: cannot access '%s': %s", t, msgNoSuchFile)
			continue
		}
		if n.IsDir() {
			dirs = append(dirs, t)
			continue
		}
		if long {
			files = append(files, lsLong(t, n))
		} else {
			files = append(files, t)
		}
	}

	format := func(entries []string) string {
		if onePerLine {
			return joinLines(entries)
		}
		return strings.Join(entries, " ")
	}

	var blocks []string
	if len(files) > 0 {
		blocks = append(blocks, format(files))
	}

	headers := recursive || len(targets) > 1
	var listDir func(label string, dir *vfs.Node)
	listDir = func(label string, dir *vfs.Node) {
		var entries []string
		var subdirs []*vfs.Node
		for _, child := range dir.Children() {
			if !visible(child, all) {
				continue
			}
			if long {
				entries = append(entries, lsLong(child.Name(), child))
			} else {
				entries = append(entries, child.Name())
			}
			if child.IsDir() {
				subdirs = append(subdirs, child)
			}
		}

		block := format(entries)
		if headers {
			block = label + ":\n" + block
		}
		blocks = append(blocks, strings.TrimSuffix(block, "\n"))

		if recursive {
			for _, sub := range subdirs {
				listDir(strings.TrimSuffix(label, "/")+"/"+sub.Name(), sub)
			}
		}
	}

	for _, t := range dirs {
		listDir(t, inv.lookup(t))
	}

	sep := "\n"
	if headers || (len(files) > 0 && len(dirs) > 0) {
		sep = "\n\n"
	}
	if len(blocks) > 0 {
		rep.add(strings.Join(blocks, sep))
	}
	return rep.result()
}

func cmdMkdir(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("mkdir: missing operand")
	}

	parents := inv.Options.Has("p", "parents")
	rep := report{fs: inv.FS}

	for _, t := range inv.Params {
		abs := inv.abs(t)
		var next *vfs.FS
		var err error
		if parents {
			next, err = rep.fs.MkdirAll(abs, inv.Now)
		} else {
			next, err = rep.fs.Mkdir(abs, inv.Now)
		}
		if err != nil {
			rep.fail("mkdir: cannot create directory '%s': %s", t, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

func cmdRmdir(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("rmdir: missing operand")
	}

	rep := report{fs: inv.FS}
	for _, t := range inv.Params {
		n := rep.fs.Lookup(inv.Cwd, t)
		switch {
		case n == nil:
			rep.fail("rmdir: failed to remove '%s': %s", t, msgNoSuchFile)
			continue
		case !n.IsDir():
			rep.fail("rmdir: failed to remove '%s': %s", t, msgNotDir)
			continue
		case n.Len() > 0:
			rep.fail("rmdir: failed to remove '%s': %s", t, msgNotEmpty)
			continue
		}
		next, err := rep.fs.Remove(inv.abs(t))
		if err != nil {
			rep.fail("rmdir: failed to remove '%s': %s", t, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

func cmdTouch(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("touch: missing file operand")
	}

	rep := report{fs: inv.FS}
	for _, t := range inv.Params {
		abs := inv.abs(t)
		var next *vfs.FS
		var err error
		if rep.fs.Lookup("/", abs) != nil {
			next, err = rep.fs.Update(abs, func(n *vfs.Node) (*vfs.Node, error) {
				return n.Touch(inv.Now), nil
			})
		} else {
			next, err = rep.fs.WriteFile(abs, "", inv.Now)
		}
		if err != nil {
			rep.fail("touch: cannot touch '%s': %s", t, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

func cmdCat(inv *Invocation) Result {
	var rep report
	srcs := inv.inputs("cat", inv.Params, &rep)

	parts := make([]string, 0, len(srcs))
	for _, src := range srcs {
		parts = append(parts, strings.TrimSuffix(src.content, "\n"))
	}
	out := joinLines(parts)

	if inv.Options.Has("n", "number") && out != "" {
		lines := splitLines(out)
		for i, line := range lines {
			lines[i] = fmt.Sprintf("%6d\t%s", i+1, line)
		}
		out = joinLines(lines)
	}

	if len(srcs) > 0 && (len(inv.Params) > 0 || out != "") {
		rep.add(out)
	}
	return rep.result()
}

func cmdPager(name string) HandlerFunc {
	return func(inv *Invocation) Result {
		if len(inv.Params) == 0 && !inv.HasStdin {
			return failure(fmt.Sprintf("Missing filename (\"%s --help\" for help)", name))
		}
		var rep report
		srcs := inv.inputs(name, inv.Params, &rep)
		for _, src := range srcs {
			rep.add(strings.TrimSuffix(src.content, "\n"))
		}
		return rep.result()
	}
}

func cmdRm(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("rm: missing operand")
	}

	recursive := inv.Options.Has("r", "R", "recursive")
	force := inv.Options.Has("f", "force")
	rep := report{fs: inv.FS}

	for _, t := range inv.Params {
		abs := inv.abs(t)
		if abs == "/" {
			rep.fail("rm: it is dangerous to operate recursively on '/'")
			continue
		}
		n := rep.fs.Lookup("/", abs)
		if n == nil {
			if !force {
				rep.fail("rm: cannot remove '%s': %s", t, msgNoSuchFile)
			}
			continue
		}
		if n.IsDir() && !recursive {
			rep.fail("rm: cannot remove '%s': %s", t, msgIsDir)
			continue
		}
		next, err := rep.fs.Remove(abs)
		if err != nil {
			rep.fail("rm: cannot remove '%s': %s", t, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

// transfer is the shared body of cp and mv.
func transfer(inv *Invocation, name string, move bool) Result {
	if len(inv.Params) == 0 {
		return failure(name + ": missing file operand")
	}
	if len(inv.Params) == 1 {
		return failure(fmt.Sprintf("%s: missing destination file operand after '%s'", name, inv.Params[0]))
	}

	srcs := inv.Params[:len(inv.Params)-1]
	dst := inv.Params[len(inv.Params)-1]
	dstAbs := inv.abs(dst)
	dstNode := inv.lookup(dst)
	intoDir := dstNode != nil && dstNode.IsDir()

	if len(srcs) > 1 && !intoDir {
		return failure(fmt.Sprintf("%s: target '%s' is not a directory", name, dst))
	}

	recursive := inv.Options.Has("r", "R", "recursive", "a")
	rep := report{fs: inv.FS}

	for _, src := range srcs {
		srcAbs := inv.abs(src)
		n := rep.fs.Lookup("/", srcAbs)
		if n == nil {
			rep.fail("%s: cannot stat '%s': %s", name, src, msgNoSuchFile)
			continue
		}
		if n.IsDir() && !move && !recursive {
			rep.fail("%s: -r not specified; omitting directory '%s'", name, src)
			continue
		}

		target := dstAbs
		if intoDir {
			target = vfs.Join(dstAbs, vfs.Base(srcAbs))
		}
		if target == srcAbs {
			if !move {
				rep.fail("%s: '%s' and '%s' are the same file", name, src, dst)
			}
			continue
		}
		if n.IsDir() && vfs.Within(target, srcAbs) {
			if move {
				rep.fail("mv: cannot move '%s' to a subdirectory of itself, '%s'", src, dst)
			} else {
				rep.fail("cp: cannot copy a directory, '%s', into itself, '%s'", src, dst)
			}
			continue
		}
		if existing := rep.fs.Lookup("/", target); existing != nil && existing.IsDir() && !n.IsDir() {
			rep.fail("%s: cannot overwrite directory '%s' with non-directory", name, target)
			continue
		}

		next := rep.fs
		var err error
		if move {
			if next, err = next.Remove(srcAbs); err != nil {
				rep.fail("%s: cannot move '%s': %s", name, src, errText(err))
				continue
			}
		} else {
			n = n.Touch(inv.Now)
		}
		if next, err = next.Put(target, n); err != nil {
			rep.fail("%s: cannot create regular file '%s': %s", name, dst, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

func cmdCp(inv *Invocation) Result { return transfer(inv, "cp", false) }
func cmdMv(inv *Invocation) Result { return transfer(inv, "mv", true) }

func cmdLn(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("ln: missing file operand")
	}

	symbolic := inv.Options.Has("s", "symbolic")
	target := inv.Params[0]
	link := vfs.Base(target)
	if len(inv.Params) > 1 {
		link = inv.Params[1]
	}

	linkAbs := inv.abs(link)
	if n := inv.FS.Lookup("/", linkAbs); n != nil && n.IsDir() {
		linkAbs = vfs.Join(linkAbs, vfs.Base(target))
	}

	kind := "hard link"
	if symbolic {
		kind = "symbolic link"
	}
	if inv.FS.Lookup("/", linkAbs) != nil {
		return failure(fmt.Sprintf("ln: failed to create %s '%s': %s", kind, link, msgExists))
	}

	var node *vfs.Node
	if symbolic {
		node = vfs.NewSymlink(vfs.Base(linkAbs), target, inv.Now)
	} else {
		src := inv.lookup(target)
		if src == nil {
			return failure(fmt.Sprintf("ln: failed to access '%s': %s", target, msgNoSuchFile))
		}
		if src.IsDir() {
			return failure(fmt.Sprintf("ln: %s: hard link not allowed for directory", target))
		}
		node = src
	}

	next, err := inv.FS.Put(linkAbs, node)
	if err != nil {
		return failure(fmt.Sprintf("ln: failed to create %s '%s': %s", kind, link, errText(err)))
	}
	return Result{FS: next}
}

var (
	octalMode    = regexp.MustCompile(`^[0-7]{3}$`)
	symbolicMode = regexp.MustCompile(`^([ugoa]*)([+\-=])([rwx]+)$`)
)

var errInvalidMode = errors.New("invalid mode")

// applyMode renders perm after applying an octal or symbolic chmod mode.
// The type character is kept.
func applyMode(perm, mode string) (string, error) {
	if len(perm) != 10 {
		perm = vfs.DefaultFilePerm
	}

	if octalMode.MatchString(mode) {
		var b strings.Builder
		b.WriteByte(perm[0])
		for _, d := range mode {
			bits := d - '0'
			b.WriteString(bitChar(bits&4 != 0, 'r'))
			b.WriteString(bitChar(bits&2 != 0, 'w'))
			b.WriteString(bitChar(bits&1 != 0, 'x'))
		}
		return b.String(), nil
	}

	// bits[class][0..2] holds r, w and x for user, group and other.
	var bits [3][3]bool
	for class := 0; class < 3; class++ {
		for i := 0; i < 3; i++ {
			bits[class][i] = perm[1+class*3+i] != '-'
		}
	}

	for _, clause := range strings.Split(mode, ",") {
		m := symbolicMode.FindStringSubmatch(clause)
		if m == nil {
			return "", errInvalidMode
		}
		who, op, what := m[1], m[2], m[3]
		if who == "" || strings.Contains(who, "a") {
			who = "ugo"
		}
		for _, w := range who {
			class := strings.IndexRune("ugo", w)
			var set [3]bool
			for _, p := range what {
				set[strings.IndexRune("rwx", p)] = true
			}
			for i := 0; i < 3; i++ {
				switch op {
				case "+":
					bits[class][i] = bits[class][i] || set[i]
				case "-":
					bits[class][i] = bits[class][i] && !set[i]
				case "=":
					bits[class][i] = set[i]
				}
			}
		}
	}

	var b strings.Builder
	b.WriteByte(perm[0])
	for class := 0; class < 3; class++ {
		b.WriteString(bitChar(bits[class][0], 'r'))
		b.WriteString(bitChar(bits[class][1], 'w'))
		b.WriteString(bitChar(bits[class][2], 'x'))
	}
	return b.String(), nil
}

func bitChar(set bool, c byte) string {
	if set {
		return string(c)
	}
	return "-"
}

func chmodTree(n *vfs.Node, mode string, recursive bool) (*vfs.Node, error) {
	perm, err := applyMode(n.Permissions(), mode)
	if err != nil {
		return nil, err
	}
	out := n.WithPermissions(perm)
	if !recursive || !n.IsDir() {
		return out, nil
	}
	for _, child := range n.Children() {
		updated, err := chmodTree(child, mode, true)
		if err != nil {
			return nil, err
		}
		out = out.WithChild(updated)
	}
	return out, nil
}

func cmdChmod(inv *Invocation) Result {
	// Symbolic modes such as -x look like flags, so scan the raw arguments.
	recursive := false
	var rest []string
	for _, a := range inv.Args {
		if a == "-R" || a == "--recursive" {
			recursive = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		return failure("chmod: missing operand")
	}
	mode := rest[0]
	if len(rest) == 1 {
		return failure(fmt.Sprintf("chmod: missing operand after '%s'", mode))
	}
	if _, err := applyMode(vfs.DefaultFilePerm, mode); err != nil {
		return failure(fmt.Sprintf("chmod: invalid mode: '%s'", mode))
	}

	rep := report{fs: inv.FS}
	for _, t := range rest[1:] {
		abs := inv.abs(t)
		if rep.fs.Lookup("/", abs) == nil {
			rep.fail("chmod: cannot access '%s': %s", t, msgNoSuchFile)
			continue
		}
		next, err := rep.fs.Update(abs, func(n *vfs.Node) (*vfs.Node, error) {
			return chmodTree(n, mode, recursive)
		})
		if err != nil {
			rep.fail("chmod: changing permissions of '%s': %s", t, errText(err))
			continue
		}
		rep.fs = next
	}
	return rep.result()
}

func describe(n *vfs.Node) string {
	switch {
	case n.IsDir():
		return "directory"
	case n.IsSymlink():
		return "symbolic link to " + n.LinkTarget()
	case n.Archive() != nil && n.Archive().Format() == vfs.FormatZip:
		return "Zip archive data, at least v2.0 to extract"
	case n.Archive() != nil:
		return "POSIX tar archive (GNU)"
	case n.Content() == "":
		return "empty"
	case strings.HasPrefix(n.Content(), "#!"):
		return "Bourne-Again shell script, ASCII text executable"
	}
	return "ASCII text"
}

func cmdFile(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("Usage: file [-bL] file...")
	}

	var rep report
	for _, t := range inv.Params {
		n := inv.lookup(t)
		if n == nil {
			rep.fail("%s: cannot open `%s' (%s)", t, t, msgNoSuchFile)
			continue
		}
		rep.add(t + ": " + describe(n))
	}
	return rep.result()
}

func cmdTree(inv *Invocation) Result {
	all := inv.Options.Has("a")
	target := "."
	if len(inv.Params) > 0 {
		target = inv.Params[0]
	}

	root := inv.lookup(target)
	if root == nil {
		return failure(target + " [error opening dir]\n\n0 directories, 0 files")
	}
	if !root.IsDir() {
		return text(target + " [error opening dir]\n\n0 directories, 0 files")
	}

	lines := []string{target}
	dirs, files := 0, 0

	var walk func(n *vfs.Node, prefix string)
	walk = func(n *vfs.Node, prefix string) {
		var kids []*vfs.Node
		for _, child := range n.Children() {
			if visible(child, all) {
				kids = append(kids, child)
			}
		}
		for i, child := range kids {
			branch, indent := "├── ", "│   "
			if i == len(kids)-1 {
				branch, indent = "└── ", "    "
			}
			name := child.Name()
			if child.IsSymlink() {
				name += " -> " + child.LinkTarget()
			}
			lines = append(lines, prefix+branch+name)
			if child.IsDir() {
				dirs++
				walk(child, prefix+indent)
			} else {
				files++
			}
		}
	}
	walk(root, "")

	lines = append(lines, "", fmt.Sprintf("%d %s, %d %s",
		dirs, plural(dirs, "directory", "directories"), files, plural(files, "file", "files")))
	return text(joinLines(lines))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// diskUsage is the size of n and everything below it, in bytes.
func diskUsage(n *vfs.Node) int64 {
	total := n.Size()
	if n.IsDir() {
		for _, child := range n.Children() {
			total += diskUsage(child)
		}
	}
	return total
}

func kib(bytes int64) int64 {
	return (bytes + 1023) / 1024
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d", bytes)
	}
	value := float64(bytes)
	suffixes := []string{"K", "M", "G", "T"}
	i := -1
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	if value < 10 {
		return fmt.Sprintf("%.1f%s", value, suffixes[i])
	}
	return fmt.Sprintf("%.0f%s", value, suffixes[i])
}

func cmdDu(inv *Invocation) Result {
	summary := inv.Options.Has("s", "summarize")
	human := inv.Options.Has("h", "human-readable")

	targets := inv.Params
	if len(targets) == 0 {
		targets = []string{"."}
	}

	size := func(bytes int64) string {
		if human {
			return humanSize(bytes)
		}
		return fmt.Sprintf("%d", kib(bytes))
	}

	var rep report
	for _, t := range targets {
		root := inv.lookup(t)
		if root == nil {
			rep.fail("du: cannot access '%s': %s", t, msgNoSuchFile)
			continue
		}
		if summary || !root.IsDir() {
			rep.add(size(diskUsage(root)) + "\t" + t)
			continue
		}

		// Post-order, like du: children before their parent.
		var walk func(label string, n *vfs.Node)
		walk = func(label string, n *vfs.Node) {
			for _, child := range n.Children() {
				if child.IsDir() {
					walk(strings.TrimSuffix(label, "/")+"/"+child.Name(), child)
				}
			}
			rep.add(size(diskUsage(n)) + "\t" + label)
		}
		walk(t, root)
	}
	return rep.result()
}

func cmdNano(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("Usage: " + inv.Name + " <file>")
	}
	t := inv.Params[0]
	if n := inv.lookup(t); n != nil && n.IsDir() {
		return failure(inv.Name + ": " + t + ": " + msgIsDir)
	}
	return Result{
		Kind:            OutputOpenEditor,
		EditorPath:      inv.abs(t),
		StdinContent:    inv.Stdin,
		HasStdinContent: inv.HasStdin,
	}
}
