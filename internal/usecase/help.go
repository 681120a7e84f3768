package usecase

import (
	"strings"

	"micros-shell/internal/domain"
)

var helpBlock = []string{
	"[MICROS]   - commands (SocketServer built-in)",
	"   hello   - default hello msg - identify device",
	"   version - shows micrOS version",
	"   exit    - exit from shell socket prompt",
	"   reboot  - system safe reboot",
	"   webrepl - start web repl for file transfers - update",
	"[CONF] Configure mode (InterpreterShell built-in):",
	"  conf       - Enter conf mode",
	"    dump       - Dump all data",
	"    key        - Get value",
	"    key value  - Set value",
	"  noconf     - Exit conf mode",
	"[EXEC] Command mode (LMs):",
}

func (s *ShellInterpreter) help(out domain.Replier) {
	for _, line := range helpBlock {
		out.Reply(line)
	}
	if s.catalog == nil {
		return
	}
	for _, m := range s.catalog.Modules() {
		out.Reply("   " + m.Name)
		indent := "   " + strings.Repeat(" ", len(m.Name))
		if m.Precompiled {
			out.Reply(indent + "help")
			continue
		}
		for _, fn := range m.Functions {
			if strings.HasPrefix(fn, "__") {
				continue
			}
			out.Reply(indent + fn)
		}
	}
}
