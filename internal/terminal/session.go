package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmaia-dev/medishop/internal/domain"
)

const currencySymbol = "₹"

// Session runs the interactive shop menu: take order, view inventory, add
// item, update stock, exit. Bad input is reported and the menu loops; the
// session never aborts on a recoverable error.
type Session struct {
	client *Client
	in     *bufio.Scanner
	out    io.Writer
}

func NewSession(client *Client, in io.Reader, out io.Writer) *Session {
	return &Session{
		client: client,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run loops until the exit command or end of input.
func (s *Session) Run(ctx context.Context) {
	for {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "===== MEDISHOP =====")
		fmt.Fprintln(s.out, "1. Take Order")
		fmt.Fprintln(s.out, "2. View Inventory")
		fmt.Fprintln(s.out, "3. Add Item")
		fmt.Fprintln(s.out, "4. Update Stock")
		fmt.Fprintln(s.out, "5. Exit")

		choice, ok := s.prompt("Enter choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			s.takeOrder(ctx)
		case "2":
			s.viewInventory(ctx)
		case "3":
			s.addItem(ctx)
		case "4":
			s.updateStock(ctx)
		case "5":
			fmt.Fprintln(s.out, "Exiting application...")
			return
		default:
			fmt.Fprintln(s.out, "Invalid choice!")
		}
	}
}

func (s *Session) takeOrder(ctx context.Context) {
	customer, ok := s.prompt("Enter Customer Name: ")
	if !ok {
		return
	}

	receiptID, err := s.client.OpenOrder(ctx, customer)
	if err != nil {
		fmt.Fprintf(s.out, "Could not open order: %v\n", err)
		return
	}

	for {
		input, ok := s.prompt("Enter Item ID (0 to finish): ")
		if !ok || input == "0" {
			break
		}

		itemID, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid item id!")
			continue
		}

		quantity, ok := s.promptInt("Enter Quantity: ")
		if !ok {
			continue
		}

		result, err := s.client.AddLine(ctx, receiptID, itemID, quantity)
		if err != nil {
			fmt.Fprintf(s.out, "Line rejected: %v\n", err)
			continue
		}

		fmt.Fprintf(s.out, "Line total: %s | Order total so far: %s\n",
			formatMoney(result.LineTotal), formatMoney(result.OrderTotal))
	}

	summary, err := s.client.FinalizeOrder(ctx, receiptID)
	if err != nil {
		fmt.Fprintf(s.out, "Could not finalize order: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "\nOrder created successfully! Receipt No: %d\n", summary.ReceiptID)
	fmt.Fprintf(s.out, "Total Amount: %s\n", formatMoney(summary.Total))
}

func (s *Session) viewInventory(ctx context.Context) {
	items, err := s.client.ListItems(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not load inventory: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "\n----- CURRENT INVENTORY -----")
	for _, item := range items {
		fmt.Fprintf(s.out, "ID: %d | Name: %s | Price: %s | Stock: %d\n",
			item.ID, item.Name, formatMoney(item.UnitPrice), item.Stock)
	}
}

func (s *Session) addItem(ctx context.Context) {
	name, ok := s.prompt("Enter Item Name: ")
	if !ok {
		return
	}
	category, ok := s.prompt("Enter Category: ")
	if !ok {
		return
	}
	price, ok := s.promptMoney("Enter Price: ")
	if !ok {
		return
	}
	stock, ok := s.promptInt("Enter Stock Quantity: ")
	if !ok {
		return
	}

	created, err := s.client.AddItem(ctx, domain.Item{
		Name:      name,
		Category:  category,
		UnitPrice: price,
		Stock:     stock,
	})
	if err != nil {
		fmt.Fprintf(s.out, "Could not add item: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Item added successfully! ID: %d\n", created.ID)
}

func (s *Session) updateStock(ctx context.Context) {
	itemID, ok := s.promptInt("Enter Item ID: ")
	if !ok {
		return
	}
	quantity, ok := s.promptInt("Enter New Stock Quantity: ")
	if !ok {
		return
	}

	if _, err := s.client.SetStock(ctx, int64(itemID), quantity); err != nil {
		fmt.Fprintf(s.out, "Could not update stock: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Stock updated successfully!")
}

func (s *Session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) promptInt(label string) (int, bool) {
	input, ok := s.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid number!")
		return 0, false
	}
	return n, true
}

// promptMoney reads a decimal amount like "10" or "10.50" into minor units.
func (s *Session) promptMoney(label string) (int64, bool) {
	input, ok := s.prompt(label)
	if !ok {
		return 0, false
	}

	whole, frac, _ := strings.Cut(input, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		fmt.Fprintln(s.out, "Invalid amount!")
		return 0, false
	}

	var cents int64
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		if cents, err = strconv.ParseInt(frac, 10, 64); err != nil {
			fmt.Fprintln(s.out, "Invalid amount!")
			return 0, false
		}
	}

	return units*100 + cents, true
}

func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, currencySymbol, minor/100, minor%100)
}
