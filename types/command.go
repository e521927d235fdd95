package types

import "fmt"

// Command names an OS command side effect. The command line behind each
// name is configuration; the orchestrator only names which one to run.
type Command string

// Commands.
const (
	// CommandAPConfig launches the access-point configurator in the background.
	CommandAPConfig Command = "ap_config"
	// CommandWebRestart restarts the appliance web server.
	CommandWebRestart Command = "web_restart"
	// CommandShutdown powers the appliance off.
	CommandShutdown Command = "shutdown"
)

// ParseCommand validates a command name.
func ParseCommand(name string) (Command, error) {
	switch c := Command(name); c {
	case CommandAPConfig, CommandWebRestart, CommandShutdown:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command %q", name)
	}
}
