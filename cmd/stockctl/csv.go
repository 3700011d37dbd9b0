package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/inventory"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Import items from a CSV file (productName, category, quantity, minStock, expiryDate)",
		ArgsUsage: "<file.csv>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-invalid", Usage: "Skip rows that fail validation instead of stopping"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("csv file is required")
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", path, err)
			}
			defer file.Close()

			added, skipped, err := seedItems(c, file, c.Bool("skip-invalid"))
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "seeded %d items (%d skipped)\n", added, skipped)
			return nil
		},
	}
}

func seedItems(c *cli.Context, r io.Reader, skipInvalid bool) (added, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"productname", "quantity", "expirydate"} {
		if _, ok := columns[required]; !ok {
			return 0, 0, fmt.Errorf("column %q not found in header: %v", required, header)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[strings.ToLower(name)]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	svc := inventoryService(c)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return added, skipped, fmt.Errorf("failed to read CSV record: %w", err)
		}

		fields, err := rowFields(record, field)
		if err == nil {
			_, err = svc.CreateItem(c.Context, fields)
		}
		if err != nil {
			if skipInvalid && errors.Is(err, domain.ErrValidation) {
				log.Warn().Err(err).Int("line", line).Msg("skipping invalid row")
				skipped++
				continue
			}
			return added, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		added++
	}

	return added, skipped, nil
}

func rowFields(record []string, field func([]string, string) string) (domain.ItemFields, error) {
	quantity, err := inventory.ParseCount("quantity", field(record, "quantity"))
	if err != nil {
		return domain.ItemFields{}, err
	}

	minStock := 0
	if raw := strings.TrimSpace(field(record, "minStock")); raw != "" {
		if minStock, err = inventory.ParseCount("minStock", raw); err != nil {
			return domain.ItemFields{}, err
		}
	}

	return domain.ItemFields{
		ProductName: field(record, "productName"),
		Category:    field(record, "category"),
		Quantity:    quantity,
		MinStock:    minStock,
		ExpiryDate:  field(record, "expiryDate"),
	}, nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write items or transactions as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "what", Usage: "items or transactions", Value: "items"},
			&cli.StringFlag{Name: "out", Usage: "Output file (default stdout)"},
		},
		Action: func(c *cli.Context) error {
			out := c.App.Writer
			if path := c.String("out"); path != "" {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			switch strings.ToLower(c.String("what")) {
			case "items":
				return writeItemsCSV(out, inventoryService(c).ListItems(c.Context, domain.ItemFilter{}))
			case "transactions":
				return writeTransactionsCSV(out, inventoryService(c).Transactions(c.Context, domain.TransactionFilter{}))
			default:
				return fmt.Errorf("unknown export %q", c.String("what"))
			}
		},
	}
}

func writeItemsCSV(w io.Writer, items []domain.ItemStatus) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"id", "productName", "category", "quantity", "minStock", "expiryDate", "status"}); err != nil {
		return err
	}
	for _, it := range items {
		record := []string{
			it.ID,
			it.ProductName,
			it.Category,
			strconv.Itoa(it.Quantity),
			strconv.Itoa(it.MinStock),
			it.ExpiryDate,
			string(it.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeTransactionsCSV(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"id", "date", "productName", "category", "type", "quantityChange", "newQuantity"}); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.ID,
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.ProductName,
			tx.Category,
			string(tx.Type),
			strconv.Itoa(tx.QuantityChange),
			strconv.Itoa(tx.NewQuantity),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
