package vfs

import "strings"

// Home is the directory ~ expands to.
const Home = "/home/student"

// Split returns the non-empty segments of p.
func Split(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func expandHome(p string) string {
	if p == "~" {
		return Home
	}
	if strings.HasPrefix(p, "~/") {
		return Home + p[1:]
	}
	return p
}

// Normalize composes p onto cwd and returns the absolute path, without
// consulting any tree. Used for paths that will exist after a create.
func Normalize(cwd, p string) string {
	p = expandHome(p)

	var stack []string
	if !strings.HasPrefix(p, "/") {
		stack = Split(expandHome(cwd))
	}

	for _, seg := range Split(p) {
		switch seg {
		case ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/")
}

// Resolve finds the node p refers to, relative to cwd, or nil.
func Resolve(root *Node, cwd, p string) *Node {
	return lookup(root, Split(Normalize(cwd, p)))
}

func lookup(root *Node, segs []string) *Node {
	cur := root
	for _, seg := range segs {
		if cur == nil || !cur.IsDir() {
			return nil
		}
		cur = cur.children[seg]
	}
	return cur
}

// Join appends name to an absolute directory path.
func Join(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// Base returns the last segment of p, "/" for the root.
func Base(p string) string {
	segs := Split(p)
	if len(segs) == 0 {
		if strings.HasPrefix(p, "/") {
			return "/"
		}
		return "."
	}
	return segs[len(segs)-1]
}

// Dir returns everything before the last segment of an absolute path.
func Dir(abs string) string {
	segs := Split(abs)
	if len(segs) <= 1 {
		return "/"
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/")
}

// Within reports whether abs equals dir or lies below it.
func Within(abs, dir string) bool {
	if dir == "/" {
		return true
	}
	return abs == dir || strings.HasPrefix(abs, dir+"/")
}
