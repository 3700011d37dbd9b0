package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/inventory"
)

func itemFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Product name", Required: required},
		&cli.StringFlag{Name: "category", Usage: "Category (optional)"},
		&cli.StringFlag{Name: "quantity", Usage: "Units on hand", Required: required},
		&cli.StringFlag{Name: "min-stock", Usage: "Reorder threshold", Value: "0"},
		&cli.StringFlag{Name: "expiry", Usage: "Expiry date (YYYY-MM-DD)", Required: required},
	}
}

func parseItemFields(c *cli.Context) (domain.ItemFields, error) {
	quantity, err := inventory.ParseCount("quantity", c.String("quantity"))
	if err != nil {
		return domain.ItemFields{}, err
	}
	minStock, err := inventory.ParseCount("minStock", c.String("min-stock"))
	if err != nil {
		return domain.ItemFields{}, err
	}

	return domain.ItemFields{
		ProductName: c.String("name"),
		Category:    c.String("category"),
		Quantity:    quantity,
		MinStock:    minStock,
		ExpiryDate:  c.String("expiry"),
	}, nil
}

// mergeItemFields overlays the flags given on the command line onto the
// item's current fields.
func mergeItemFields(c *cli.Context, current domain.Item) (domain.ItemFields, error) {
	fields := domain.ItemFields{
		ProductName: current.ProductName,
		Category:    current.Category,
		Quantity:    current.Quantity,
		MinStock:    current.MinStock,
		ExpiryDate:  current.ExpiryDate,
	}

	if c.IsSet("name") {
		fields.ProductName = c.String("name")
	}
	if c.IsSet("category") {
		fields.Category = c.String("category")
	}
	if c.IsSet("quantity") {
		n, err := inventory.ParseCount("quantity", c.String("quantity"))
		if err != nil {
			return domain.ItemFields{}, err
		}
		fields.Quantity = n
	}
	if c.IsSet("min-stock") {
		n, err := inventory.ParseCount("minStock", c.String("min-stock"))
		if err != nil {
			return domain.ItemFields{}, err
		}
		fields.MinStock = n
	}
	if c.IsSet("expiry") {
		fields.ExpiryDate = c.String("expiry")
	}
	return fields, nil
}

// idArg accepts the item id as --id or as the first positional argument.
func idArg(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.String("id"))
	if id == "" {
		id = strings.TrimSpace(c.Args().First())
	}
	if id == "" {
		return "", errors.New("item id is required")
	}
	return id, nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an item",
		Flags: itemFlags(true),
		Action: func(c *cli.Context) error {
			fields, err := parseItemFields(c)
			if err != nil {
				return err
			}

			item, err := inventoryService(c).CreateItem(c.Context, fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "added %s (%s)\n", item.ProductName, item.ID)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change an item; omitted flags keep their current value",
		ArgsUsage: "[id]",
		Flags:     append([]cli.Flag{&cli.StringFlag{Name: "id", Usage: "Item id"}}, itemFlags(false)...),
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			svc := inventoryService(c)
			current, err := svc.GetItem(c.Context, id)
			if err != nil {
				return err
			}
			fields, err := mergeItemFields(c, current.Item)
			if err != nil {
				return err
			}

			item, err := svc.UpdateItem(c.Context, id, fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "updated %s (%s)\n", item.ProductName, item.ID)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove an item",
		ArgsUsage: "[id]",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "id", Usage: "Item id"}},
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			if err := inventoryService(c).DeleteItem(c.Context, id); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "deleted %s\n", id)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List items with their status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Usage: "Match product name, category or status"},
			&cli.StringFlag{Name: "status", Usage: "Normal, Low Stock, Near Expiry, Expired or all", Value: "all"},
		},
		Action: func(c *cli.Context) error {
			items := inventoryService(c).ListItems(c.Context, domain.ItemFilter{
				Search: c.String("search"),
				Status: c.String("status"),
			})
			writeItems(c.App.Writer, items)
			return nil
		},
	}
}

func alertsCommand() *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "Fire pending alerts",
		Action: func(c *cli.Context) error {
			eval, err := inventoryService(c).Evaluate(c.Context)
			if err != nil {
				return err
			}

			if len(eval.Alerts) == 0 {
				fmt.Fprintln(c.App.Writer, "no new alerts")
				return nil
			}
			for _, alert := range eval.Alerts {
				fmt.Fprintln(c.App.Writer, alert.Message)
			}
			return nil
		},
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show stock counts by status and category",
		Action: func(c *cli.Context) error {
			dash, err := inventoryService(c).Dashboard(c.Context)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "total: %d  low stock: %d  near expiry: %d  expired: %d\n\n",
				dash.Counts.Total, dash.Counts.LowStock, dash.Counts.NearExpiry, dash.Counts.Expired)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tLOW STOCK\tNEAR EXPIRY\tEXPIRED")
			for _, row := range dash.Categories {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", row.Category, row.Total, row.LowStock, row.NearExpiry, row.Expired)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(w)
			for _, slice := range dash.Chart {
				fmt.Fprintf(w, "%-12s %d\n", slice.Label, slice.Value)
			}
			return nil
		},
	}
}

func transactionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "transactions",
		Usage: "List inventory movements",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Usage: "Match product name or category"},
			&cli.StringFlag{Name: "type", Usage: "Incoming, Outgoing, Adjustment, Removed or all", Value: "all"},
			&cli.BoolFlag{Name: "summary", Usage: "Print only the per-type counts"},
		},
		Action: func(c *cli.Context) error {
			svc := inventoryService(c)
			w := c.App.Writer

			if c.Bool("summary") {
				s := svc.TransactionSummary(c.Context)
				fmt.Fprintf(w, "total: %d  incoming: %d  outgoing: %d  adjustment: %d\n",
					s.Total, s.Incoming, s.Outgoing, s.Adjustment)
				return nil
			}

			txs := svc.Transactions(c.Context, domain.TransactionFilter{
				Search: c.String("search"),
				Type:   c.String("type"),
			})

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPRODUCT\tCATEGORY\tTYPE\tCHANGE\tNEW QTY")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+d\t%d\n",
					tx.Timestamp.Local().Format("2006-01-02 15:04"), tx.ProductName, categoryOrDash(tx.Category),
					tx.Type, tx.QuantityChange, tx.NewQuantity)
			}
			return tw.Flush()
		},
	}
}

func writeItems(w io.Writer, items []domain.ItemStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tCATEGORY\tQTY\tMIN\tEXPIRY\tDAYS\tSTATUS")
	for _, it := range items {
		days := "-"
		if it.DaysLeft != nil {
			days = fmt.Sprint(*it.DaysLeft)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			it.ID, it.ProductName, categoryOrDash(it.Category), it.Quantity, it.MinStock, it.ExpiryDate, days, it.Status)
	}
	tw.Flush()
}

func categoryOrDash(category string) string {
	if category == "" {
		return domain.CategoryPlaceholder
	}
	return category
}
