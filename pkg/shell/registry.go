package shell

import (
	"fmt"
	"sort"
	"strings"
)

// Command describes one builtin.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Handler Handler
}

// Registry maps command names and aliases to builtins.
type Registry struct {
	primary map[string]Command
	lookup  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		primary: make(map[string]Command),
		lookup:  make(map[string]string),
	}
}

// DefaultRegistry returns a registry holding every builtin.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, register := range []func(r *Registry) error{
		registerCoreCommands,
		registerFSCommands,
		registerTextCommands,
		registerSearchCommands,
		registerArchiveCommands,
		registerSysCommands,
	} {
		if err := register(r); err != nil {
			panic(err)
		}
	}

	return r
}

func (r *Registry) Register(cmd Command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("shell registry: empty command name")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("shell registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.lookup[cmd.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", cmd.Name)
	}

	r.primary[cmd.Name] = cmd
	r.lookup[cmd.Name] = cmd.Name

	for _, alias := range cmd.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if _, ok := r.lookup[alias]; ok {
			return fmt.Errorf("shell registry: duplicate alias %q", alias)
		}
		r.lookup[alias] = cmd.Name
	}
	return nil
}

func registerAll(r *Registry, cmds []Command) error {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves a name or alias.
func (r *Registry) Lookup(name string) (Command, bool) {
	if primary, ok := r.lookup[name]; ok {
		cmd, ok := r.primary[primary]
		return cmd, ok
	}
	return Command{}, false
}

// Names returns the primary command names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.primary))
	for name := range r.primary {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler named by inv.Name.
func (r *Registry) Dispatch(inv *Invocation) Result {
	cmd, ok := r.Lookup(inv.Name)
	if !ok {
		return failure("bash: " + inv.Name + ": command not found")
	}
	inv.registry = r
	return cmd.Handler.Run(inv)
}
