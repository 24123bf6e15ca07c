package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	interp "github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
)

// Editor commands, each on a line of its own.
const (
	editorSave    = ":wq"
	editorQuit    = ":q"
	editorDropEnd = ":d"
)

// edit is a line editor overlay for OpenEditor results. The buffer starts
// from piped stdin or the file's current content; typed lines are appended.
func (s *Shell) edit(res interp.Result) error {
	var buf []string
	if res.HasStdinContent {
		buf = bufferLines(res.StdinContent)
	} else if n := s.Snapshot().Lookup("/", res.EditorPath); n != nil && !n.IsDir() {
		buf = bufferLines(n.Content())
	}

	fmt.Fprintf(s.Out, "  GNU nano 6.2    %s\n", res.EditorPath)
	for _, line := range buf {
		fmt.Fprintln(s.Out, line)
	}
	fmt.Fprintf(s.Out, "[ type lines to append; %s save, %s quit, %s drop last line ]\n", editorSave, editorQuit, editorDropEnd)

	if pr, ok := s.in.(prompter); ok {
		pr.SetPrompt("")
	}

	for {
		line, err := s.in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.TrimSpace(line) {
		case editorSave:
			return s.save(res.EditorPath, buf)
		case editorQuit, editorQuit + "!":
			return nil
		case editorDropEnd:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		default:
			buf = append(buf, line)
		}
	}
}

func (s *Shell) save(path string, buf []string) error {
	next, err := s.Snapshot().WriteFile(path, strings.Join(buf, "\n"), s.now())
	if err != nil {
		fmt.Fprintf(s.Err, "[ Error writing %s: %v ]\n", path, err)
		return nil
	}
	s.fs.Store(next)
	s.logger.Debug("editor saved", zap.String("path", path), zap.Int("lines", len(buf)))
	fmt.Fprintf(s.Out, "[ Wrote %d lines ]\n", len(buf))
	return nil
}

func bufferLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
