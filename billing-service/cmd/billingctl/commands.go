package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/util"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func requireID(name string, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: %s requires -id", errUsage, name)
	}
	return nil
}

func runSync(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("sync")
	noPrices := fs.Bool("no-prices", false, "keep local prices")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	report, err := a.sync.Run(ctx, !*noPrices)
	if err != nil {
		return err
	}
	printSyncReport(out, report)
	if !report.Success {
		return errors.New("catalog sync failed")
	}
	return nil
}

func runRecompute(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("recompute")
	push := fs.Bool("push", false, "push prices to the remote catalog afterwards")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	report, err := a.pricing.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	printRecomputeReport(out, report)

	if !*push {
		return nil
	}
	pushReport, err := a.push.PushAll(ctx)
	if err != nil {
		return err
	}
	printPushReport(out, pushReport)
	return nil
}

func runPush(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("push")
	id := fs.Uint("id", 0, "product id; all products when omitted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *id != 0 {
		result, err := a.push.PushByID(ctx, *id)
		if err != nil {
			return err
		}
		report := &entity.PushReport{}
		report.Add(*result)
		printPushReport(out, report)
		return nil
	}

	report, err := a.push.PushAll(ctx)
	if err != nil {
		return err
	}
	printPushReport(out, report)
	return nil
}

func runProducts(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("products")
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "rows to skip")
	search := fs.String("search", "", "name filter")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	resp, err := a.products.List(ctx, entity.ProductFilter{Search: *search, Limit: *limit, Offset: *offset})
	if err != nil {
		return err
	}
	printProducts(out, resp)
	return nil
}

func runProduct(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("product")
	id := fs.Uint("id", 0, "product id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireID("product", *id); err != nil {
		return err
	}

	product, err := a.products.Get(ctx, *id)
	if err != nil {
		return err
	}
	printProduct(out, product)
	return nil
}

func runRates(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("rates")
	limit := fs.Int("limit", 10, "number of rates")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rates, err := a.rates.List(ctx, *limit)
	if err != nil {
		return err
	}
	printRates(out, rates)
	return nil
}

func runInvoices(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("invoices")
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "rows to skip")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	invoices, total, err := a.invoices.List(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	printInvoices(out, invoices, total)
	return nil
}

func runInvoice(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("invoice")
	id := fs.Uint("id", 0, "invoice id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireID("invoice", *id); err != nil {
		return err
	}

	invoice, err := a.invoices.Get(ctx, *id)
	if err != nil {
		return err
	}
	printInvoice(out, invoice)
	return nil
}

func runWebhook(ctx context.Context, a *app, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: webhook needs create, list, delete or test", errUsage)
	}
	action, rest := args[0], args[1:]

	fs := newFlagSet("webhook " + action)
	targetURL := fs.String("url", "", "delivery url (https)")
	eventType := fs.String("type", string(entity.WebhookInventoryLevelsUpdate), "event type")
	remoteID := fs.String("id", "", "remote webhook id")
	if err := parseFlags(fs, rest); err != nil {
		return err
	}

	switch action {
	case "create":
		webhook, err := a.webhooks.Create(ctx, &entity.CreateWebhookRequest{
			URL:  *targetURL,
			Type: entity.WebhookEventType(*eventType),
		})
		if err != nil {
			return err
		}
		printWebhooks(out, []entity.Webhook{*webhook})
	case "list":
		webhooks, err := a.webhooks.List(ctx)
		if err != nil {
			return err
		}
		printWebhooks(out, webhooks)
	case "delete":
		if *remoteID == "" {
			return fmt.Errorf("%w: webhook delete requires -id", errUsage)
		}
		if err := a.webhooks.Delete(ctx, *remoteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "webhook %s deleted\n", *remoteID)
	case "test":
		if *remoteID == "" {
			return fmt.Errorf("%w: webhook test requires -id", errUsage)
		}
		status, err := a.webhooks.TestFire(ctx, *remoteID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "test delivery to %s answered %d\n", *remoteID, status)
	default:
		return fmt.Errorf("%w: unknown webhook action %q", errUsage, action)
	}
	return nil
}

func runHashPassword(args []string, out io.Writer) error {
	fs := newFlagSet("hash-password")
	password := fs.String("password", "", "plain password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *password == "" {
		return fmt.Errorf("%w: hash-password requires -password", errUsage)
	}

	hash, err := util.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}
