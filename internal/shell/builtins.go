package shell

import (
	"fmt"
	"strconv"
)

func (s *Shell) registerBuiltins() {

	s.builtins["exit"] = func(args []string, s *Shell) error {
		if len(args) > 0 {
			if _, err := strconv.Atoi(args[0]); err != nil {
				fmt.Fprintf(s.Err, "bash: exit: %s: numeric argument required\n", args[0])
			}
		}
		return ErrExit
	}

	s.builtins["logout"] = s.builtins["exit"]

	s.builtins["type"] = func(args []string, s *Shell) error {

		if len(args) == 0 {
			fmt.Fprintln(s.Out, "type: usage: type NAME")
			return nil
		}

		for _, name := range args {
			// check session builtins
			if _, ok := s.builtins[name]; ok {
				fmt.Fprintln(s.Out, name, "is a shell builtin")
				continue
			}

			if _, ok := s.interp.Registry().Lookup(name); ok {
				fmt.Fprintln(s.Out, name, "is", "/usr/bin/"+name)
				continue
			}

			fmt.Fprintln(s.Err, "bash: type: "+name+": not found")
		}
		return nil
	}
}
