package shell

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func registerTextCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "head", Usage: "head [-n N] [file...]", Desc: "output the first part of files", Handler: HandlerFunc(cmdHead)},
		{Name: "tail", Usage: "tail [-n N] [file...]", Desc: "output the last part of files", Handler: HandlerFunc(cmdTail)},
		{Name: "wc", Usage: "wc [-lwc] [file...]", Desc: "print newline, word, and byte counts", Handler: HandlerFunc(cmdWc)},
		{Name: "sort", Usage: "sort [-nruf] [file...]", Desc: "sort lines of text", Handler: HandlerFunc(cmdSort)},
		{Name: "uniq", Usage: "uniq [-cdu] [file]", Desc: "report or omit repeated lines", Handler: HandlerFunc(cmdUniq)},
		{Name: "cut", Usage: "cut -d DELIM -f LIST | -c LIST [file...]", Desc: "remove sections from each line of files", Handler: HandlerFunc(cmdCut)},
		{Name: "diff", Usage: "diff [-u] <file1> <file2>", Desc: "compare files line by line", Handler: HandlerFunc(cmdDiff)},
		{Name: "awk", Usage: "awk [-F sep] '{print $N}' [file...]", Desc: "pattern scanning and processing language", Handler: HandlerFunc(cmdAwk)},
		{Name: "basename", Usage: "basename <path> [suffix]", Desc: "strip directory and suffix from filenames", Handler: HandlerFunc(cmdBasename)},
		{Name: "dirname", Usage: "dirname <path>", Desc: "strip last component from file name", Handler: HandlerFunc(cmdDirname)},
	})
}

const defaultLineCount = 10

// lineCount reads -n N, -nN and -N. fromStart is set for tail's +N form.
func lineCount(cmd string, args []string) (n int, fromStart bool, rest []string, err error) {
	n = defaultLineCount
	var filtered []string
	for _, a := range args {
		if len(a) > 1 && a[0] == '-' && isDigits(a[1:]) {
			filtered = append(filtered, "-n", a[1:])
			continue
		}
		filtered = append(filtered, a)
	}

	_, vals, params := ScanArgs(filtered, "n")
	if v, ok := vals.Last("n"); ok {
		if strings.HasPrefix(v, "+") {
			fromStart = true
			v = v[1:]
		}
		parsed, convErr := strconv.Atoi(v)
		if convErr != nil || parsed < 0 {
			return 0, false, nil, fmt.Errorf("%s: invalid number of lines: '%s'", cmd, v)
		}
		n = parsed
	}
	return n, fromStart, params, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func headTail(cmd string, pick func(lines []string, n int, fromStart bool) []string) HandlerFunc {
	return func(inv *Invocation) Result {
		n, fromStart, files, err := lineCount(cmd, inv.Args)
		if err != nil {
			return failure(err.Error())
		}

		var rep report
		srcs := inv.inputs(cmd, files, &rep)
		var blocks []string
		for _, src := range srcs {
			block := joinLines(pick(splitLines(src.content), n, fromStart))
			if len(files) > 1 {
				block = "==> " + src.name + " <==\n" + block
			}
			blocks = append(blocks, block)
		}
		if len(blocks) > 0 {
			rep.add(strings.Join(blocks, "\n\n"))
		}
		return rep.result()
	}
}

var cmdHead = headTail("head", func(lines []string, n int, _ bool) []string {
	if n < len(lines) {
		return lines[:n]
	}
	return lines
})

var cmdTail = headTail("tail", func(lines []string, n int, fromStart bool) []string {
	if fromStart {
		if n <= 1 {
			return lines
		}
		if n-1 >= len(lines) {
			return nil
		}
		return lines[n-1:]
	}
	if n < len(lines) {
		return lines[len(lines)-n:]
	}
	return lines
})

// countLines counts newlines, plus one for a final line without one.
func countLines(s string) int {
	n := strings.Count(s, "\n")
	if s != "" && !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func cmdWc(inv *Invocation) Result {
	showLines := inv.Options.Has("l", "lines")
	showWords := inv.Options.Has("w", "words")
	showBytes := inv.Options.Has("c", "bytes")
	if !showLines && !showWords && !showBytes {
		showLines, showWords, showBytes = true, true, true
	}

	row := func(l, w, c int, name string) string {
		var cols []string
		if showLines {
			cols = append(cols, fmt.Sprintf("%4d", l))
		}
		if showWords {
			cols = append(cols, fmt.Sprintf("%4d", w))
		}
		if showBytes {
			cols = append(cols, fmt.Sprintf("%4d", c))
		}
		line := strings.Join(cols, " ")
		if name != "" {
			line += " " + name
		}
		return line
	}

	var rep report
	var tl, tw, tc int
	srcs := inv.inputs("wc", inv.Params, &rep)
	for _, src := range srcs {
		l, w, c := countLines(src.content), len(strings.Fields(src.content)), len(src.content)
		tl, tw, tc = tl+l, tw+w, tc+c
		rep.add(row(l, w, c, src.name))
	}
	if len(inv.Params) > 1 {
		rep.add(row(tl, tw, tc, "total"))
	}
	return rep.result()
}

func gatherLines(inv *Invocation, cmd string, files []string, rep *report) []string {
	var lines []string
	for _, src := range inv.inputs(cmd, files, rep) {
		lines = append(lines, splitLines(src.content)...)
	}
	return lines
}

func leadingNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	return v, err == nil
}

func cmdSort(inv *Invocation) Result {
	var rep report
	lines := gatherLines(inv, "sort", inv.Params, &rep)

	if inv.Options.Has("n", "numeric-sort") {
		sort.SliceStable(lines, func(i, j int) bool {
			a, aok := leadingNumber(lines[i])
			b, bok := leadingNumber(lines[j])
			switch {
			case aok && bok:
				return a < b
			case aok != bok:
				return aok
			}
			return lines[i] < lines[j]
		})
	} else {
		var opts []collate.Option
		if inv.Options.Has("f", "ignore-case") {
			opts = append(opts, collate.IgnoreCase)
		}
		c := collate.New(language.English, opts...)
		sort.SliceStable(lines, func(i, j int) bool {
			return c.CompareString(lines[i], lines[j]) < 0
		})
	}

	if inv.Options.Has("r", "reverse") {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}

	if inv.Options.Has("u", "unique") {
		var out []string
		for _, line := range lines {
			if len(out) == 0 || line != out[len(out)-1] {
				out = append(out, line)
			}
		}
		lines = out
	}

	if len(lines) > 0 {
		rep.add(joinLines(lines))
	}
	return rep.result()
}

func cmdUniq(inv *Invocation) Result {
	var rep report
	files := inv.Params
	if len(files) > 1 {
		files = files[:1]
	}
	lines := gatherLines(inv, "uniq", files, &rep)

	count := inv.Options.Has("c", "count")
	onlyDup := inv.Options.Has("d", "repeated")
	onlyUniq := inv.Options.Has("u", "unique")

	var out []string
	for i := 0; i < len(lines); {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		n := j - i
		switch {
		case onlyDup && n < 2, onlyUniq && n > 1:
		case count:
			out = append(out, fmt.Sprintf("%7d %s", n, lines[i]))
		default:
			out = append(out, lines[i])
		}
		i = j
	}

	if len(out) > 0 {
		rep.add(joinLines(out))
	}
	return rep.result()
}

type span struct{ from, to int }

// parseList reads a cut list such as 1,3-4,6- into 1-based inclusive spans.
// An open end is 0.
func parseList(list string) ([]span, bool) {
	var spans []span
	for _, part := range strings.Split(list, ",") {
		from, to, isRange := strings.Cut(part, "-")
		s := span{}
		var err error
		if from != "" {
			if s.from, err = strconv.Atoi(from); err != nil || s.from < 1 {
				return nil, false
			}
		} else if !isRange {
			return nil, false
		} else {
			s.from = 1
		}
		switch {
		case !isRange:
			s.to = s.from
		case to != "":
			if s.to, err = strconv.Atoi(to); err != nil || s.to < s.from {
				return nil, false
			}
		}
		if from == "" && to == "" {
			return nil, false
		}
		spans = append(spans, s)
	}
	return spans, true
}

func selected(spans []span, i int) bool {
	for _, s := range spans {
		if i >= s.from && (s.to == 0 || i <= s.to) {
			return true
		}
	}
	return false
}

func cmdCut(inv *Invocation) Result {
	_, vals, files := ScanArgs(inv.Args, "dfc")

	delim := "\t"
	if d, ok := vals.Last("d"); ok {
		if len([]rune(d)) != 1 {
			return failure("cut: the delimiter must be a single character")
		}
		delim = d
	}

	fieldList, byField := vals.Last("f")
	charList, byChar := vals.Last("c")
	if !byField && !byChar {
		return failure("cut: you must specify a list of bytes, characters, or fields")
	}
	list := fieldList
	if !byField {
		list = charList
	}
	spans, ok := parseList(list)
	if !ok {
		return failure(fmt.Sprintf("cut: invalid field value '%s'", list))
	}

	var rep report
	lines := gatherLines(inv, "cut", files, &rep)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if byField {
			if !strings.Contains(line, delim) {
				out = append(out, line)
				continue
			}
			var picked []string
			for i, f := range strings.Split(line, delim) {
				if selected(spans, i+1) {
					picked = append(picked, f)
				}
			}
			out = append(out, strings.Join(picked, delim))
			continue
		}
		var b strings.Builder
		for i, r := range []rune(line) {
			if selected(spans, i+1) {
				b.WriteRune(r)
			}
		}
		out = append(out, b.String())
	}

	if len(out) > 0 {
		rep.add(joinLines(out))
	}
	return rep.result()
}

// diffRange renders a 1-based line range the way normal diff output does.
func diffRange(from, to int) string {
	if to-from <= 1 {
		return strconv.Itoa(to)
	}
	return fmt.Sprintf("%d,%d", from+1, to)
}

func normalDiff(a, b []string) []string {
	var out []string
	m := difflib.NewMatcher(a, b)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			out = append(out, diffRange(op.I1, op.I2)+"c"+diffRange(op.J1, op.J2))
		case 'd':
			out = append(out, diffRange(op.I1, op.I2)+"d"+strconv.Itoa(op.J1))
		case 'i':
			out = append(out, strconv.Itoa(op.I1)+"a"+diffRange(op.J1, op.J2))
		default:
			continue
		}
		for _, line := range a[op.I1:op.I2] {
			out = append(out, "< "+line)
		}
		if op.Tag == 'r' {
			out = append(out, "---")
		}
		for _, line := range b[op.J1:op.J2] {
			out = append(out, "> "+line)
		}
	}
	return out
}

func cmdDiff(inv *Invocation) Result {
	switch len(inv.Params) {
	case 0:
		return failure("diff: missing operand after 'diff'")
	case 1:
		return failure(fmt.Sprintf("diff: missing operand after '%s'", inv.Params[0]))
	}

	var rep report
	srcs := inv.inputs("diff", inv.Params[:2], &rep)
	if len(srcs) < 2 {
		return rep.result()
	}
	a, b := srcs[0], srcs[1]
	if a.content == b.content {
		return text("")
	}

	if inv.Options.Has("u", "unified") {
		out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(a.content),
			B:        difflib.SplitLines(b.content),
			FromFile: a.name,
			ToFile:   b.name,
			Context:  3,
		})
		if err != nil {
			return failure("diff: " + err.Error())
		}
		return text(strings.TrimSuffix(out, "\n"))
	}

	return text(joinLines(normalDiff(splitLines(a.content), splitLines(b.content))))
}

var awkProgram = regexp.MustCompile(`^\s*\{\s*print\s*(.*?)\s*;?\s*\}\s*$`)

// awkTerm is one piece of a print expression: a field reference, NF or a
// string literal.
var awkTerm = regexp.MustCompile(`"[^"]*"|\$NF|\$\d+|NF`)

func awkEval(expr string, fields []string, line string) string {
	var b strings.Builder
	for _, term := range awkTerm.FindAllString(expr, -1) {
		switch {
		case strings.HasPrefix(term, `"`):
			b.WriteString(strings.Trim(term, `"`))
		case term == "NF":
			b.WriteString(strconv.Itoa(len(fields)))
		case term == "$NF":
			if len(fields) > 0 {
				b.WriteString(fields[len(fields)-1])
			}
		default:
			i, _ := strconv.Atoi(term[1:])
			if i == 0 {
				b.WriteString(line)
			} else if i <= len(fields) {
				b.WriteString(fields[i-1])
			}
		}
	}
	return b.String()
}

// splitPrintArgs splits a print argument list on commas outside literals.
func splitPrintArgs(s string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(args, cur.String())
}

func cmdAwk(inv *Invocation) Result {
	_, vals, params := ScanArgs(inv.Args, "F")
	if len(params) == 0 {
		return failure("usage: awk [-F fs] 'program' [file ...]")
	}

	m := awkProgram.FindStringSubmatch(params[0])
	if m == nil {
		return failure(fmt.Sprintf("awk: syntax error in program '%s'", params[0]))
	}
	exprs := []string{"$0"}
	if strings.TrimSpace(m[1]) != "" {
		exprs = splitPrintArgs(m[1])
	}

	sep, custom := vals.Last("F")
	if custom && sep == `\t` {
		sep = "\t"
	}

	var rep report
	lines := gatherLines(inv, "awk", params[1:], &rep)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		var fields []string
		if custom && sep != " " {
			fields = strings.Split(line, sep)
		} else {
			fields = strings.Fields(line)
		}
		printed := make([]string, 0, len(exprs))
		for _, e := range exprs {
			printed = append(printed, awkEval(e, fields, line))
		}
		out = append(out, strings.Join(printed, " "))
	}

	if len(out) > 0 {
		rep.add(joinLines(out))
	}
	return rep.result()
}

func trimSlashes(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" && p != "" {
		return "/"
	}
	return trimmed
}

func cmdBasename(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("basename: missing operand")
	}
	p := trimSlashes(inv.Params[0])
	base := path.Base(p)
	if len(inv.Params) > 1 && base != inv.Params[1] {
		base = strings.TrimSuffix(base, inv.Params[1])
	}
	return text(base)
}

func cmdDirname(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("dirname: missing operand")
	}
	return text(path.Dir(trimSlashes(inv.Params[0])))
}
