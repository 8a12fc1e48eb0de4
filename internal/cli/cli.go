package cli

import (
	"fmt"
	"strings"
)

type Command string

const (
	CommandUI        Command = "ui"
	CommandListen    Command = "listen"
	CommandSummarize Command = "summarize"
	CommandDevices   Command = "devices"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandUI:        {},
	CommandListen:    {},
	CommandSummarize: {},
	CommandDevices:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command  Command
	ShowHelp bool
}

// Parse reads the command line. No arguments starts the terminal UI.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandUI}

	for i, arg := range args {
		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [command]

Commands:
  ui         Terminal UI: start/stop, switch speaker, live transcript, summary (default)
  listen     Transcribe from startup; type 's' to switch speakers, 'q' to quit
  summarize  Summarize the current transcript and print the result
  devices    List available input devices
  help       Show this help

Configuration is read from the environment (see README for variables).

Flags:
  -h, --help   Show help
`, binaryName)
}
