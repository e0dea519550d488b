package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var billingTables = []string{"products", "exchange_rates", "invoices", "invoice_lines", "webhooks"}

type columnInfo struct {
	Table    string
	Column   string
	DataType string
	Nullable string
}

type productStats struct {
	Total        int64
	WithSale     int64
	WithCost     int64
	InStock      int64
	LastPriceSet *time.Time
	LastStockSet *time.Time
}

// runSchema reads information_schema directly with pgx, independent of the
// gorm models.
func runSchema(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("schema")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, a.cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	columns, err := loadColumns(ctx, pool)
	if err != nil {
		return err
	}
	stats, err := loadProductStats(ctx, pool)
	if err != nil {
		return err
	}

	printColumns(out, columns)
	fmt.Fprintln(out)
	printProductStats(out, stats)
	return nil
}

func loadColumns(ctx context.Context, pool *pgxpool.Pool) ([]columnInfo, error) {
	rows, err := pool.Query(ctx, `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = ANY($1)
		ORDER BY table_name, ordinal_position`, billingTables)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var c columnInfo
		if err := rows.Scan(&c.Table, &c.Column, &c.DataType, &c.Nullable); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func loadProductStats(ctx context.Context, pool *pgxpool.Pool) (*productStats, error) {
	var s productStats
	err := pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE sale_price > 0),
		       count(*) FILTER (WHERE purchase_cost_usd IS NOT NULL),
		       count(*) FILTER (WHERE stock > 0),
		       max(price_updated_at),
		       max(stock_updated_at)
		FROM products`).Scan(&s.Total, &s.WithSale, &s.WithCost, &s.InStock, &s.LastPriceSet, &s.LastStockSet)
	if err != nil {
		return nil, fmt.Errorf("query product stats: %w", err)
	}
	return &s, nil
}

func printColumns(out io.Writer, columns []columnInfo) {
	tw := newTable(out)
	fmt.Fprintln(tw, "TABLE\tCOLUMN\tTYPE\tNULLABLE")
	for _, c := range columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Table, c.Column, c.DataType, c.Nullable)
	}
	tw.Flush()
}

func printProductStats(out io.Writer, s *productStats) {
	tw := newTable(out)
	fmt.Fprintf(tw, "Products\t%d\n", s.Total)
	fmt.Fprintf(tw, "With sale price\t%d\n", s.WithSale)
	fmt.Fprintf(tw, "With USD cost\t%d\n", s.WithCost)
	fmt.Fprintf(tw, "In stock\t%d\n", s.InStock)
	fmt.Fprintf(tw, "Last price update\t%s\n", formatTime(s.LastPriceSet))
	fmt.Fprintf(tw, "Last stock update\t%s\n", formatTime(s.LastStockSet))
	tw.Flush()
}
