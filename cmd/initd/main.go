// Package main provides the entry point for initd, a UNIX-style init
// supervisor. With no arguments it runs the supervisor itself; given a
// switch or manage subcommand it talks to an already-running
// supervisor over the Control Surface's UNIX-domain socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-initd/initd/internal/bootstrap"
	"github.com/go-initd/initd/internal/control"
)

var version = "dev"

const defaultInittabPath = "/etc/inittab"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("initd", flag.ContinueOnError)
	inittabPath := fs.String("config", defaultInittabPath, "path to the inittab file")
	runlevel := fs.Int("runlevel", 3, "runlevel to boot at")
	showVersion := fs.Bool("version", false, "show version and exit")

	// Subcommands (switch, manage) are recognized before flag parsing
	// since they take positional arguments rather than flags.
	if len(args) > 0 {
		switch args[0] {
		case "switch", "manage":
			code, output, err := control.RunCLI(context.Background(), control.SocketPath, args)
			if output != "" {
				fmt.Println(output)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			return code
		}
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("initd %s\n", version)
		return 0
	}

	app, err := bootstrap.New(*inittabPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer app.AuditLog.Close()

	return app.Run(context.Background(), *runlevel)
}
