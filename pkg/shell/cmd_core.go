package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

func registerCoreCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "echo", Usage: "echo [-neE] [string...]", Desc: "display a line of text", Handler: HandlerFunc(cmdEcho)},
		{Name: "pwd", Usage: "pwd", Desc: "print name of current/working directory", Handler: HandlerFunc(cmdPwd)},
		{Name: "cd", Usage: "cd [dir|-]", Desc: "change the working directory", Handler: HandlerFunc(cmdCd)},
		{Name: "clear", Usage: "clear", Desc: "clear the terminal screen", Handler: HandlerFunc(cmdClear)},
		{Name: "history", Usage: "history [n]", Desc: "display the command history list", Handler: HandlerFunc(cmdHistory)},
		{Name: "help", Usage: "help", Desc: "list available commands", Handler: HandlerFunc(cmdHelp)},
		{Name: "man", Usage: "man <command>", Desc: "an interface to the system reference manuals", Handler: HandlerFunc(cmdMan)},
		{Name: "sudo", Usage: "sudo <command> [args...]", Desc: "execute a command as another user", Handler: HandlerFunc(cmdSudo)},
	})
}

func cmdEcho(inv *Invocation) Result {
	args := inv.Args
	interpret := false

	// Only leading words made of echo's own flags are flags.
	for len(args) > 0 && isEchoFlag(args[0]) {
		if strings.ContainsRune(args[0], 'e') {
			interpret = true
		}
		if strings.ContainsRune(args[0], 'E') {
			interpret = false
		}
		args = args[1:]
	}

	out := strings.Join(args, " ")
	if interpret {
		out = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`).Replace(out)
	}
	return text(out)
}

func isEchoFlag(tok string) bool {
	if !isOption(tok) || strings.HasPrefix(tok, "--") {
		return false
	}
	return strings.Trim(tok[1:], "neE") == ""
}

func cmdPwd(inv *Invocation) Result {
	return text(inv.Cwd)
}

func cmdCd(inv *Invocation) Result {
	target := vfs.Home
	if len(inv.Params) > 0 {
		target = inv.Params[0]
	}

	if target == "-" {
		if inv.OldPwd == "" {
			return failure("bash: cd: OLDPWD not set")
		}
		n := inv.FS.Lookup("/", inv.OldPwd)
		if n == nil || !n.IsDir() {
			return failure("bash: cd: " + inv.OldPwd + ": " + msgNoSuchFile)
		}
		return Result{Output: inv.OldPwd, Cwd: inv.OldPwd}
	}

	n := inv.lookup(target)
	if n == nil {
		return failure("bash: cd: " + target + ": " + msgNoSuchFile)
	}
	if !n.IsDir() {
		return failure("bash: cd: " + target + ": " + msgNotDir)
	}
	return Result{Cwd: inv.abs(target)}
}

func cmdClear(*Invocation) Result {
	return Result{Kind: OutputClearScreen}
}

func cmdHistory(inv *Invocation) Result {
	start := 0
	if len(inv.Params) > 0 {
		n, err := strconv.Atoi(inv.Params[0])
		if err != nil || n < 0 {
			return failure("bash: history: " + inv.Params[0] + ": numeric argument required")
		}
		if n < len(inv.History) {
			start = len(inv.History) - n
		}
	}

	lines := make([]string, 0, len(inv.History)-start)
	for i := start; i < len(inv.History); i++ {
		lines = append(lines, fmt.Sprintf("%5d  %s", i+1, inv.History[i].Command))
	}
	return text(joinLines(lines))
}

func cmdHelp(inv *Invocation) Result {
	lines := []string{"Available commands:"}
	for _, name := range inv.registry.Names() {
		cmd, _ := inv.registry.Lookup(name)
		lines = append(lines, fmt.Sprintf("  %-10s %s", name, cmd.Desc))
	}
	lines = append(lines, "", "Type 'man <command>' for details.")
	return text(joinLines(lines))
}

func cmdMan(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("What manual page do you want?\nFor example, try 'man man'.")
	}

	name := inv.Params[0]
	cmd, ok := inv.registry.Lookup(name)
	if !ok {
		return failure("No manual entry for " + name)
	}

	return text(joinLines([]string{
		"NAME",
		"       " + cmd.Name + " - " + cmd.Desc,
		"",
		"SYNOPSIS",
		"       " + cmd.Usage,
	}))
}

// sudo runs the wrapped command unchanged. There is no privilege model.
func cmdSudo(inv *Invocation) Result {
	if len(inv.Args) == 0 {
		return failure("usage: sudo command [args...]")
	}
	if _, ok := inv.registry.Lookup(inv.Args[0]); !ok {
		return failure("sudo: " + inv.Args[0] + ": command not found")
	}
	return inv.redispatch(inv.Args[0], inv.Args[1:])
}
