package control

import (
	"context"
	"fmt"
	"strconv"
)

// ExitCodes for the one-shot CLI subcommands, per the external
// interfaces contract.
const (
	ExitAccepted     = 0
	ExitInvalidInput = 2
	ExitNotFound     = 1
)

// RunCLI dispatches args[0:] (excluding the program name) against the
// running supervisor's control socket and returns the process exit
// code plus anything that should be printed to stdout.
func RunCLI(ctx context.Context, socketPath string, args []string) (code int, output string, err error) {
	if len(args) == 0 {
		return 0, "", fmt.Errorf("no supervisor subcommand given")
	}

	client, dialErr := Dial(socketPath)
	if dialErr != nil {
		return 1, "", dialErr
	}
	defer client.Close()

	switch args[0] {
	case "switch":
		if len(args) != 2 {
			return ExitInvalidInput, "", fmt.Errorf("usage: init switch <n>")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return ExitInvalidInput, "", fmt.Errorf("invalid runlevel %q", args[1])
		}
		if err := client.Switch(ctx, n); err != nil {
			return ExitInvalidInput, "", err
		}
		return ExitAccepted, "", nil

	case "manage":
		if len(args) != 3 {
			return ExitInvalidInput, "", fmt.Errorf("usage: init manage start|stop|status <name>")
		}
		action, name := args[1], args[2]
		switch action {
		case "start":
			if err := client.ManageStart(ctx, name); err != nil {
				return ExitNotFound, "", err
			}
			return ExitAccepted, "", nil
		case "stop":
			if err := client.ManageStop(ctx, name); err != nil {
				return ExitNotFound, "", err
			}
			return ExitAccepted, "", nil
		case "status":
			status, err := client.ManageStatus(ctx, name)
			if err != nil {
				return ExitNotFound, "not found", nil
			}
			return ExitAccepted, status, nil
		default:
			return ExitInvalidInput, "", fmt.Errorf("unknown manage action %q", action)
		}

	default:
		return ExitInvalidInput, "", fmt.Errorf("unknown subcommand %q", args[0])
	}
}
