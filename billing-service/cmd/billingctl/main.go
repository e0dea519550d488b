// Command billingctl runs billing operations from a shell: catalog sync,
// price recompute and push, listings, schema inspection and webhook
// management. It uses the same environment as the billing service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var errUsage = errors.New("usage")

const usage = `usage: billingctl <command> [flags]

commands:
  sync [-no-prices]                     fetch the remote catalog
  recompute [-push]                     recompute sale prices, optionally push them
  push [-id N]                          push prices to the remote catalog
  products [-limit N -offset N -search S]
  product -id N
  rates [-limit N]
  invoices [-limit N -offset N]
  invoice -id N
  schema                                table columns and product stats
  webhook create -url U -type T | list | delete -id ID | test -id ID
  hash-password -password P             bcrypt hash for ADMIN_PASSWORD_HASH
`

type command func(ctx context.Context, a *app, args []string, out io.Writer) error

var commands = map[string]command{
	"sync":      runSync,
	"recompute": runRecompute,
	"push":      runPush,
	"products":  runProducts,
	"product":   runProduct,
	"rates":     runRates,
	"invoices":  runInvoices,
	"invoice":   runInvoice,
	"schema":    runSchema,
	"webhook":   runWebhook,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	name, rest := args[0], args[1:]

	switch name {
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	case "hash-password":
		return runHashPassword(rest, out)
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(ctx, a, rest, out)
}
