package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"login_gateway/internal/service/app"
	"login_gateway/internal/utils/log"

	"github.com/docopt/docopt-go"
)

const usage = `
Usage:
  client [--ops <addr>] [--log <file>]
  client --probe [options] <username> [<password>]

Options:
  --ops <addr>           Ops server to monitor [default: localhost:9090]
  --log <file>           Write debug logs to <file> instead of discarding them
  --probe                Send one login frame and print the gateway's answer
  --gateway <addr>       Gateway to probe [default: localhost:43594]
  --key <path>           Gateway RSA key, public or private PEM [default: gateway.pem]
  --release <n>          Client release to claim [default: 180]
  --machine-info <v>     Machine-info block version [default: 6]
  --reconnect            Send a reconnecting frame
  --previous <seed>      Seed of the session to resume, as printed by a
                         previous probe [default: 0,0,0,0]
  -h, --help             Print this message and exit
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		return err
	}

	if probe, _ := opts.Bool("--probe"); probe {
		var p probeOptions
		if err := opts.Bind(&p); err != nil {
			return err
		}
		return runProbe(p)
	}

	// the terminal belongs to the UI, so logs go to a file or nowhere
	if file, _ := opts.String("--log"); file != "" {
		if err := initFileLog(file); err != nil {
			return err
		}
		defer log.Sync()
	}

	ops, _ := opts.String("--ops")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := app.NewApp(ops)
	go func() {
		<-ctx.Done()
		monitor.Stop()
	}()
	return monitor.Run(ctx)
}
