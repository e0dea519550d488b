package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
)

const timeLayout = "2006-01-02 15:04"

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func printProducts(out io.Writer, resp *entity.ProductListResponse) {
	fmt.Fprintf(out, "PRODUCTS (%d found)\n", resp.Total)
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tBASE\tSALE\tSTOCK\tCATEGORY\tSOURCE")
	for _, p := range resp.Products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Name, 30), p.BasePrice.StringFixed(2), p.SalePrice.StringFixed(2),
			p.Stock.String(), truncate(p.Category, 18), p.PriceSource)
	}
	tw.Flush()
}

func printProduct(out io.Writer, p *entity.Product) {
	cost := "-"
	if p.PurchaseCostUSD.Valid {
		cost = p.PurchaseCostUSD.Decimal.StringFixed(2)
	}

	tw := newTable(out)
	fmt.Fprintf(tw, "ID\t%d\n", p.ID)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Remote item\t%s\n", p.RemoteID)
	fmt.Fprintf(tw, "Remote variant\t%s\n", p.RemoteVariantID)
	fmt.Fprintf(tw, "Category\t%s\n", p.Category)
	fmt.Fprintf(tw, "Base price\t%s\n", p.BasePrice.StringFixed(2))
	fmt.Fprintf(tw, "Sale price\t%s\n", p.SalePrice.StringFixed(2))
	fmt.Fprintf(tw, "Cost USD\t%s\n", cost)
	fmt.Fprintf(tw, "Units per package\t%d\n", p.UnitsPerPackage)
	fmt.Fprintf(tw, "Markup %%\t%s\n", p.Markup.StringFixed(2))
	fmt.Fprintf(tw, "Rate type\t%s\n", p.RateType)
	fmt.Fprintf(tw, "Variable pricing\t%t\n", p.VariablePricing)
	fmt.Fprintf(tw, "Price source\t%s\n", p.PriceSource)
	fmt.Fprintf(tw, "Price updated\t%s\n", formatTime(p.PriceUpdatedAt))
	fmt.Fprintf(tw, "Stock\t%s\n", p.Stock.String())
	fmt.Fprintf(tw, "Stock updated\t%s\n", formatTime(p.StockUpdatedAt))
	tw.Flush()
}

func printRates(out io.Writer, rates []entity.ExchangeRate) {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tTYPE\tVALUE\tOBSERVED")
	for _, r := range rates {
		observed := r.ObservedAt
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Type, r.Value.StringFixed(2), formatTime(&observed))
	}
	tw.Flush()
}

func printInvoices(out io.Writer, invoices []entity.Invoice, total int64) {
	fmt.Fprintf(out, "INVOICES (%d total)\n", total)
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNUMBER\tDATE\tCURRENCY\tTOTAL BS\tTOTAL USD\tSYNCED")
	for _, inv := range invoices {
		created := inv.CreatedAt
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			inv.ID, inv.Number, formatTime(&created), inv.Currency,
			inv.TotalBS.StringFixed(2), inv.TotalUSD.StringFixed(2), inv.Synced)
	}
	tw.Flush()
}

func printInvoice(out io.Writer, inv *entity.Invoice) {
	rate := "N/A"
	if inv.ExchangeRate != nil {
		rate = fmt.Sprintf("%s (%s)", inv.ExchangeRate.Value.StringFixed(2), inv.ExchangeRate.Type)
	}
	created := inv.CreatedAt

	fmt.Fprintf(out, "INVOICE %s\n", inv.Number)
	tw := newTable(out)
	fmt.Fprintf(tw, "Date\t%s\n", formatTime(&created))
	fmt.Fprintf(tw, "Currency\t%s\n", inv.Currency)
	fmt.Fprintf(tw, "Exchange rate\t%s\n", rate)
	fmt.Fprintf(tw, "Total BS\t%s\n", inv.TotalBS.StringFixed(2))
	fmt.Fprintf(tw, "Total USD\t%s\n", inv.TotalUSD.StringFixed(2))
	fmt.Fprintf(tw, "Synced\t%t\n", inv.Synced)
	tw.Flush()

	fmt.Fprintln(out)
	tw = newTable(out)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tUNIT PRICE\tTOTAL")
	for _, line := range inv.Lines {
		name := fmt.Sprintf("#%d", line.ProductID)
		if line.Product != nil {
			name = truncate(line.Product.Name, 30)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, line.Quantity.String(), line.UnitPrice.StringFixed(2), line.Total.StringFixed(2))
	}
	tw.Flush()
}

func printSyncReport(out io.Writer, r *entity.SyncReport) {
	tw := newTable(out)
	fmt.Fprintf(tw, "Success\t%t\n", r.Success)
	fmt.Fprintf(tw, "Partial\t%t\n", r.Partial)
	fmt.Fprintf(tw, "Prices applied\t%t\n", r.PricesApplied)
	fmt.Fprintf(tw, "Pages\t%d\n", r.Pages)
	fmt.Fprintf(tw, "Created\t%d\n", r.Created)
	fmt.Fprintf(tw, "Updated\t%d\n", r.Updated)
	fmt.Fprintf(tw, "Unchanged\t%d\n", r.Unchanged)
	fmt.Fprintf(tw, "Prices kept\t%d\n", r.PricesUnchanged)
	fmt.Fprintf(tw, "Invalid\t%d\n", r.Invalid)
	fmt.Fprintf(tw, "Failed\t%d\n", r.Failed)
	if r.Error != "" {
		fmt.Fprintf(tw, "Error\t%s\n", r.Error)
	}
	tw.Flush()
	for _, d := range r.Details {
		fmt.Fprintln(out, "  -", d)
	}
}

func printRecomputeReport(out io.Writer, r *entity.RecomputeReport) {
	fmt.Fprintf(out, "Recomputed: %d updated, %d skipped, %d failed\n", r.Updated, r.Skipped, r.Failed)
	tw := newTable(out)
	for _, res := range r.Results {
		if res.Error != "" {
			fmt.Fprintf(tw, "%d\t%s\tERROR\t%s\n", res.ProductID, truncate(res.Name, 30), res.Error)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", res.ProductID, truncate(res.Name, 30), res.SalePrice.StringFixed(2))
	}
	tw.Flush()
}

func printPushReport(out io.Writer, r *entity.PushReport) {
	fmt.Fprintf(out, "Pushed: %d updated, %d skipped, %d failed\n", r.Updated, r.Skipped, r.Failed)
	tw := newTable(out)
	for _, res := range r.Details {
		if res.Status == entity.PushUpdated {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", res.ProductID, truncate(res.Name, 30), res.Status, res.Error)
	}
	tw.Flush()
}

func printWebhooks(out io.Writer, webhooks []entity.Webhook) {
	tw := newTable(out)
	fmt.Fprintln(tw, "REMOTE ID\tTYPE\tSTATUS\tURL")
	for _, w := range webhooks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.RemoteID, w.Type, w.Status, w.URL)
	}
	tw.Flush()
}
