package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

const (
	// DefaultHostname is what hostname and uname -n print when the caller
	// does not pick one.
	DefaultHostname = "learning-lab"

	userName = "student"
	kernel   = "5.15.0-91-generic"
)

func registerSysCommands(r *Registry) error {
	return registerAll(r, []Command{
		{Name: "ps", Usage: "ps [aux]", Desc: "report a snapshot of the current processes", Handler: HandlerFunc(cmdPs)},
		{Name: "top", Usage: "top", Desc: "display Linux processes", Handler: HandlerFunc(cmdTop)},
		{Name: "pstree", Usage: "pstree", Desc: "display a tree of processes", Handler: HandlerFunc(cmdPstree)},
		{Name: "uptime", Usage: "uptime", Desc: "tell how long the system has been running", Handler: HandlerFunc(cmdUptime)},
		{Name: "free", Usage: "free [-h]", Desc: "display amount of free and used memory in the system", Handler: HandlerFunc(cmdFree)},
		{Name: "uname", Usage: "uname [-asnrm]", Desc: "print system information", Handler: HandlerFunc(cmdUname)},
		{Name: "df", Usage: "df [-h]", Desc: "report file system disk space usage", Handler: HandlerFunc(cmdDf)},
		{Name: "id", Usage: "id", Desc: "print real and effective user and group IDs", Handler: HandlerFunc(cmdID)},
		{Name: "groups", Usage: "groups", Desc: "print the groups a user is in", Handler: HandlerFunc(cmdGroups)},
		{Name: "whoami", Usage: "whoami", Desc: "print effective user name", Handler: HandlerFunc(cmdWhoami)},
		{Name: "hostname", Usage: "hostname", Desc: "show the system's host name", Handler: HandlerFunc(cmdHostname)},
		{Name: "date", Usage: "date [+FORMAT]", Desc: "print the system date and time", Handler: HandlerFunc(cmdDate)},
		{Name: "pkill", Usage: "pkill <name>", Desc: "signal processes based on name", Handler: HandlerFunc(cmdPkill)},
		{Name: "systemctl", Usage: "systemctl <status|start|stop|restart|enable|disable|is-active> [unit]", Desc: "control the systemd system and service manager", Handler: HandlerFunc(cmdSystemctl)},
		{Name: "apt", Aliases: []string{"apt-get"}, Usage: "apt <update|install|remove> [package...]", Desc: "command-line interface for the package management system", Handler: HandlerFunc(cmdApt)},
		{Name: "nginx", Usage: "nginx [-t|-v]", Desc: "HTTP and reverse proxy server", Handler: HandlerFunc(cmdNginx)},
		{Name: "crontab", Usage: "crontab [-l|-e|-r] [file]", Desc: "maintain crontab files", Handler: HandlerFunc(cmdCrontab)},
	})
}

func (inv *Invocation) hostname() string {
	if inv.Host != "" {
		return inv.Host
	}
	return DefaultHostname
}

type process struct {
	pid     int
	user    string
	cpu     float64
	mem     float64
	command string
}

var processes = []process{
	{1, "root", 0.0, 0.3, "/sbin/init"},
	{412, "root", 0.0, 0.1, "/usr/sbin/cron -f"},
	{587, "root", 0.0, 0.2, "sshd: /usr/sbin/sshd -D"},
	{733, "root", 0.0, 0.1, "nginx: master process /usr/sbin/nginx"},
	{734, "www-data", 0.0, 0.2, "nginx: worker process"},
	{1201, userName, 0.0, 0.1, "-bash"},
}

func cmdPs(inv *Invocation) Result {
	full := inv.Options.Has("e", "a", "u", "x", "f")
	for _, p := range inv.Params {
		if strings.ContainsAny(p, "aux") {
			full = true
		}
	}

	if !full {
		return text(joinLines([]string{
			"    PID TTY          TIME CMD",
			"   1201 pts/0    00:00:00 bash",
			"   1342 pts/0    00:00:00 ps",
		}))
	}

	lines := []string{"USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND"}
	for _, p := range processes {
		lines = append(lines, fmt.Sprintf("%-10s %5d %4.1f %4.1f 168000 11200 ?        Ss   09:00   0:00 %s",
			p.user, p.pid, p.cpu, p.mem, p.command))
	}
	lines = append(lines, fmt.Sprintf("%-10s %5d %4.1f %4.1f  10068  3300 pts/0    R+   %s   0:00 ps aux",
		userName, 1342, 0.0, 0.0, inv.Now.Format("15:04")))
	return text(joinLines(lines))
}

func uptimeLine(inv *Invocation) string {
	return fmt.Sprintf(" %s up 3 days,  4:12,  1 user,  load average: 0.08, 0.03, 0.01", inv.Now.Format("15:04:05"))
}

func cmdUptime(inv *Invocation) Result {
	return text(uptimeLine(inv))
}

func cmdTop(inv *Invocation) Result {
	lines := []string{
		"top - " + strings.TrimSpace(uptimeLine(inv)),
		"Tasks:  87 total,   1 running,  86 sleeping,   0 stopped,   0 zombie",
		"%Cpu(s):  0.3 us,  0.2 sy,  0.0 ni, 99.5 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st",
		"MiB Mem :   3931.5 total,   2114.2 free,    612.8 used,   1204.5 buff/cache",
		"MiB Swap:   2048.0 total,   2048.0 free,      0.0 used.   3061.9 avail Mem",
		"",
		"    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND",
	}
	for _, p := range processes {
		name := strings.Fields(p.command)[0]
		name = strings.TrimSuffix(strings.TrimPrefix(vfs.Base(name), "-"), ":")
		lines = append(lines, fmt.Sprintf("%7d %-8s  20   0  168000  11200   8300 S   %3.1f   %3.1f   0:00.12 %s",
			p.pid, p.user, p.cpu, p.mem, name))
	}
	return text(joinLines(lines))
}

func cmdPstree(*Invocation) Result {
	return text(joinLines([]string{
		"systemd─┬─cron",
		"        ├─nginx───nginx",
		"        ├─sshd───sshd───bash───pstree",
		"        └─systemd-journal",
	}))
}

func cmdFree(inv *Invocation) Result {
	if inv.Options.Has("h", "human") {
		return text(joinLines([]string{
			"               total        used        free      shared  buff/cache   available",
			"Mem:           3.8Gi       612Mi       2.1Gi       1.0Mi       1.2Gi       3.0Gi",
			"Swap:          2.0Gi          0B       2.0Gi",
		}))
	}
	return text(joinLines([]string{
		"               total        used        free      shared  buff/cache   available",
		"Mem:         4025856      627508     2164940        1024     1233408     3135376",
		"Swap:        2097148           0     2097148",
	}))
}

func cmdUname(inv *Invocation) Result {
	o := inv.Options
	if o.Has("a", "all") {
		return text(fmt.Sprintf("Linux %s %s #101-Ubuntu SMP Tue Nov 14 13:30:08 UTC 2023 x86_64 x86_64 x86_64 GNU/Linux", inv.hostname(), kernel))
	}

	var parts []string
	if o.Has("s") || len(o) == 0 {
		parts = append(parts, "Linux")
	}
	if o.Has("n") {
		parts = append(parts, inv.hostname())
	}
	if o.Has("r") {
		parts = append(parts, kernel)
	}
	if o.Has("m") {
		parts = append(parts, "x86_64")
	}
	return text(strings.Join(parts, " "))
}

func cmdDf(inv *Invocation) Result {
	if inv.Options.Has("h", "human-readable") {
		return text(joinLines([]string{
			"Filesystem      Size  Used Avail Use% Mounted on",
			"/dev/sda1        20G  6.2G   13G  33% /",
			"tmpfs           1.9G     0  1.9G   0% /dev/shm",
			"/dev/sda15      105M  6.1M   99M   6% /boot/efi",
		}))
	}
	return text(joinLines([]string{
		"Filesystem     1K-blocks    Used Available Use% Mounted on",
		"/dev/sda1       20509264 6501236  12943068  34% /",
		"tmpfs            1965928       0   1965928   0% /dev/shm",
		"/dev/sda15        106858    6186    100673   6% /boot/efi",
	}))
}

func cmdID(*Invocation) Result {
	return text("uid=1000(student) gid=1000(student) groups=1000(student),27(sudo)")
}

func cmdGroups(*Invocation) Result {
	return text(userName + " sudo")
}

func cmdWhoami(*Invocation) Result {
	return text(userName)
}

func cmdHostname(inv *Invocation) Result {
	return text(inv.hostname())
}

var dateDirectives = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%a", "Mon",
	"%b", "Jan",
	"%Z", "MST",
	"%%", "%",
)

func cmdDate(inv *Invocation) Result {
	if len(inv.Params) > 0 && strings.HasPrefix(inv.Params[0], "+") {
		layout := dateDirectives.Replace(inv.Params[0][1:])
		return text(inv.Now.Format(layout))
	}
	return text(inv.Now.Format("Mon Jan _2 15:04:05 MST 2006"))
}

func cmdPkill(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return failure("pkill: no matching criteria specified\nTry `pkill --help' for more information.")
	}
	for _, p := range processes {
		if strings.Contains(p.command, inv.Params[0]) {
			return text("")
		}
	}
	return failure("")
}

type service struct {
	name    string
	desc    string
	running bool
}

// services is the fixed table systemctl reports on.
var services = []service{
	{"nginx", "A high performance web server and a reverse proxy server", true},
	{"ssh", "OpenBSD Secure Shell server", true},
	{"cron", "Regular background program processing daemon", true},
	{"mysql", "MySQL Community Server", false},
	{"apache2", "The Apache HTTP Server", false},
}

func findService(unit string) (service, bool) {
	unit = strings.TrimSuffix(unit, ".service")
	for _, s := range services {
		if s.name == unit {
			return s, true
		}
	}
	return service{}, false
}

func serviceStatus(inv *Invocation, s service) string {
	active := "inactive (dead)"
	if s.running {
		active = "active (running) since " + inv.Now.Add(-76*time.Hour).Format("Mon 2006-01-02 15:04:05 MST") + "; 3 days ago"
	}
	return joinLines([]string{
		"● " + s.name + ".service - " + s.desc,
		"     Loaded: loaded (/lib/systemd/system/" + s.name + ".service; enabled; vendor preset: enabled)",
		"     Active: " + active,
	})
}

func cmdSystemctl(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		lines := []string{"  UNIT                LOAD   ACTIVE   SUB     DESCRIPTION"}
		for _, s := range services {
			active, sub := "inactive", "dead"
			if s.running {
				active, sub = "active", "running"
			}
			lines = append(lines, fmt.Sprintf("  %-19s loaded %-8s %-7s %s", s.name+".service", active, sub, s.desc))
		}
		return text(joinLines(lines))
	}

	verb := inv.Params[0]
	if len(inv.Params) < 2 {
		switch verb {
		case "status", "start", "stop", "restart", "enable", "disable", "is-active", "reload":
			return failure("Too few arguments.")
		}
		return failure("Unknown command verb " + verb + ".")
	}

	unit := inv.Params[1]
	s, ok := findService(unit)
	switch verb {
	case "status":
		if !ok {
			return failure("Unit " + unit + ".service could not be found.")
		}
		return text(serviceStatus(inv, s))
	case "is-active":
		if ok && s.running {
			return text("active")
		}
		return failure("inactive")
	case "start", "stop", "restart", "reload", "enable", "disable":
		if !ok {
			return failure(fmt.Sprintf("Failed to %s %s.service: Unit %s.service not found.", verb, unit, unit))
		}
		return text("")
	}
	return failure("Unknown command verb " + verb + ".")
}

func cmdApt(inv *Invocation) Result {
	if len(inv.Params) == 0 {
		return text("apt 2.4.11 (amd64)\nUsage: apt [options] command")
	}

	switch inv.Params[0] {
	case "update":
		return text(joinLines([]string{
			"Hit:1 http://archive.ubuntu.com/ubuntu jammy InRelease",
			"Get:2 http://security.ubuntu.com/ubuntu jammy-security InRelease [110 kB]",
			"Fetched 110 kB in 1s (98.2 kB/s)",
			"Reading package lists... Done",
			"Building dependency tree... Done",
			"All packages are up to date.",
		}))
	case "install", "remove":
		pkgs := inv.Params[1:]
		if len(pkgs) == 0 {
			return text("0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.")
		}
		lines := []string{"Reading package lists... Done", "Building dependency tree... Done"}
		for _, p := range pkgs {
			if inv.Params[0] == "install" {
				lines = append(lines, "Setting up "+p+" ...")
			} else {
				lines = append(lines, "Removing "+p+" ...")
			}
		}
		return text(joinLines(lines))
	}
	return failure("E: Invalid operation " + inv.Params[0])
}

const nginxConf = "/etc/nginx/nginx.conf"

func cmdNginx(inv *Invocation) Result {
	switch {
	case inv.Options.Has("v"):
		return text("nginx version: nginx/1.18.0 (Ubuntu)")
	case inv.Options.Has("t"):
		if n := inv.FS.Lookup("/", nginxConf); n == nil || n.IsDir() {
			return failure(fmt.Sprintf("nginx: [emerg] open() \"%s\" failed (2: No such file or directory)\nnginx: configuration file %s test failed", nginxConf, nginxConf))
		}
		return text(joinLines([]string{
			"nginx: the configuration file " + nginxConf + " syntax is ok",
			"nginx: configuration file " + nginxConf + " test is successful",
		}))
	}
	return failure("nginx: [emerg] bind() to 0.0.0.0:80 failed (98: Address already in use)")
}

var crontabPath = vfs.Join(vfs.Home, ".crontab")

func cmdCrontab(inv *Invocation) Result {
	switch {
	case inv.Options.Has("e"):
		return Result{Kind: OutputOpenEditor, EditorPath: crontabPath}
	case inv.Options.Has("l"):
		n := inv.FS.Lookup("/", crontabPath)
		if n == nil || n.IsDir() || strings.TrimSpace(n.Content()) == "" {
			return failure("no crontab for " + userName)
		}
		return text(strings.TrimSuffix(n.Content(), "\n"))
	case inv.Options.Has("r"):
		if inv.FS.Lookup("/", crontabPath) == nil {
			return failure("no crontab for " + userName)
		}
		next, err := inv.FS.Remove(crontabPath)
		if err != nil {
			return failure("crontab: " + errText(err))
		}
		return Result{FS: next}
	}

	if len(inv.Params) == 0 {
		return failure("usage:\tcrontab [-u user] file\n\tcrontab [-u user] [ -e | -l | -r ]")
	}
	src := inv.follow(inv.Params[0])
	if src == nil || src.IsDir() {
		return failure(inv.Params[0] + ": " + msgNoSuchFile)
	}
	next, err := inv.FS.WriteFile(crontabPath, src.Content(), inv.Now)
	if err != nil {
		return failure("crontab: " + errText(err))
	}
	return Result{FS: next}
}
