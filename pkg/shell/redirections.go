package shell

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

var ErrMissingRedirectDestination = errors.New("missing redirect destination")

type RedirectionSpec struct {
	Operator string // > or >>
	Target   string // target path as typed
	Index    int    // relative index in args
}

// cleaned up arguments after parsed through for redirection
type ParsedCommand struct {
	Args         []string
	Redirections []RedirectionSpec
}

// handles each type of redirection
type RedirectionHandler interface {
	CanHandle(operator string) bool                                                                       // check for operator
	Validate(redirection RedirectionSpec) error                                                           // check if this redirection is possible
	Apply(redirection RedirectionSpec, output string, fs *vfs.FS, cwd string, now time.Time) (*vfs.FS, error) // write output into the tree
}

// handle stdout redirections
type StdoutRedirectionHandler struct {
	Overwrite bool
}

func (handler *StdoutRedirectionHandler) CanHandle(operator string) bool {
	if handler.Overwrite {
		return operator == ">" || operator == "1>"
	}

	return operator == ">>" || operator == "1>>"
}

func (handler *StdoutRedirectionHandler) Validate(redirection RedirectionSpec) error {
	if redirection.Target == "" {
		return ErrMissingRedirectDestination
	}

	return nil
}

func (handler *StdoutRedirectionHandler) Apply(redirection RedirectionSpec, output string, fs *vfs.FS, cwd string, now time.Time) (*vfs.FS, error) {

	abs := vfs.Normalize(cwd, redirection.Target)

	content := output
	if !handler.Overwrite {
		if existing := fs.Lookup("/", abs); existing != nil && !existing.IsDir() {
			prev := existing.Content()
			content = prev + output
			if prev != "" && !strings.HasSuffix(prev, "\n") {
				content = prev + "\n" + output
			}
		}
	}

	next, err := fs.WriteFile(abs, content, now)

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", redirection.Target, err)
	}

	return next, nil

}

var defaultRedirectionHandlers = []RedirectionHandler{
	&StdoutRedirectionHandler{Overwrite: true},
	&StdoutRedirectionHandler{Overwrite: false},
}

// extractRedirections strips > and >> from an unquoted token list. The
// operator may stand alone or be glued to a word on either side.
func extractRedirections(tokens []Token) (ParsedCommand, error) {
	parsed := ParsedCommand{Args: []string{}}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		idx := strings.Index(tok.Text, ">")

		if tok.Quoted || idx < 0 {
			parsed.Args = append(parsed.Args, tok.Text)
			continue
		}

		before := tok.Text[:idx]
		operator := ">"
		after := tok.Text[idx+1:]
		if strings.HasPrefix(after, ">") {
			operator = ">>"
			after = after[1:]
		}

		if before != "" {
			parsed.Args = append(parsed.Args, before)
		}

		target := after
		if target == "" {
			if i+1 >= len(tokens) {
				return ParsedCommand{}, ErrMissingRedirectDestination
			}
			i++
			target = tokens[i].Text
		}

		parsed.Redirections = append(parsed.Redirections, RedirectionSpec{
			Operator: operator,
			Target:   target,
			Index:    len(parsed.Args),
		})
	}

	return parsed, nil
}
