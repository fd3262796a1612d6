package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/cart"
	"tillpos-backend/internal/catalog"
	"tillpos-backend/internal/checkout"
	"tillpos-backend/internal/client"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/export"
	"tillpos-backend/internal/history"
	"tillpos-backend/internal/ledger"
	"tillpos-backend/internal/receipt"
	"tillpos-backend/internal/session"
)

const help = `commands:
  login <username> <password>    logout    whoami
  products [search]              categories [name]
  add <id|barcode> [qty]         qty <id> <qty>        discount <id> <amount>
  remove <id>                    cart                  clear
  quote [percentage|fixed <value>] [paid]
  pay <cash|card|qris|ewallet> [paid] [percentage|fixed <value>]
  shift                          shift open <cash>     shift preview <cash>
  shift close <cash> [notes]     movement <cash_in|cash_out|adjustment> <amount> [reason]
  movements                      history [today|week|month|all] [method] [search]
  export <csv|xlsx> <path> [period] [method] [search]
  quit`

type app struct {
	backend  *client.Client
	session  *session.Manager
	ledger   *ledger.Ledger
	catalog  *catalog.Catalog
	cart     *cart.Cart
	checkout *checkout.Checkout
	out      io.Writer
	logger   *slog.Logger
}

func (a *app) run(ctx context.Context, in io.Reader) error {
	if u, ok := a.session.User(); ok {
		a.printf("signed in as %s (%s)\n", u.Username, u.Role)
		a.refreshCatalog(ctx)
	} else {
		a.printf("not signed in; use: login <username> <password>\n")
	}

	sc := bufio.NewScanner(in)
	for {
		a.printf("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := a.dispatch(ctx, args[0], args[1:]); err != nil {
			a.printErr(err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		a.printf("%s\n", help)
		return nil
	case "login":
		return a.login(ctx, args)
	}

	if _, err := a.session.RequireAuthenticated(); err != nil {
		return err
	}
	switch cmd {
	case "logout":
		a.session.Logout()
		a.cart.Clear()
		a.printf("signed out\n")
	case "whoami":
		u, _ := a.session.User()
		a.printf("%s %s (%s), %s\n", u.Username, u.FullName, u.Role, a.ledger.State())
	case "products":
		return a.products(ctx, strings.Join(args, " "))
	case "categories":
		return a.categories(args)
	case "add":
		return a.add(ctx, args)
	case "qty":
		return a.qty(args)
	case "discount":
		return a.discount(args)
	case "remove":
		if len(args) != 1 {
			return usage("remove <id>")
		}
		a.cart.Remove(args[0])
		a.showCart()
	case "cart":
		a.showCart()
	case "clear":
		a.cart.Clear()
	case "quote":
		req, err := paymentArgs(domain.PaymentCash, args)
		if err != nil {
			return err
		}
		a.showBreakdown(a.checkout.Quote(req))
	case "pay":
		return a.pay(ctx, args)
	case "shift":
		return a.shift(ctx, args)
	case "movement":
		return a.movement(ctx, args)
	case "movements":
		return a.movements(ctx)
	case "history":
		return a.history(ctx, args)
	case "export":
		return a.export(ctx, args)
	default:
		return usage("unknown command " + strconv.Quote(cmd) + "; try help")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("login <username> <password>")
	}
	u, err := a.session.Login(ctx, args[0], args[1])
	if err != nil && a.session.State() != session.Authenticated {
		return err
	}
	a.printf("welcome %s (%s)\n", u.FullName, u.Role)
	if err != nil {
		a.printErr(err)
	}
	a.refreshCatalog(ctx)
	a.printf("%s\n", a.ledger.State())
	return nil
}

func (a *app) refreshCatalog(ctx context.Context) {
	if err := a.catalog.Refresh(ctx); err != nil {
		a.printErr(err)
		return
	}
	a.logger.Debug("catalog refreshed", "products", len(a.catalog.All()))
}

func (a *app) products(ctx context.Context, term string) error {
	if err := a.catalog.Refresh(ctx); err != nil {
		a.printErr(err)
	}
	list := a.catalog.All()
	if term != "" {
		list = a.catalog.Search(term)
	}
	a.productTable(list)
	return nil
}

func (a *app) categories(args []string) error {
	if len(args) == 0 {
		for _, c := range a.catalog.Categories() {
			a.printf("%s\n", c)
		}
		return nil
	}
	a.productTable(catalog.FilterByCategory(a.catalog.All(), strings.Join(args, " ")))
	return nil
}

func (a *app) productTable(list []domain.Product) {
	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBARCODE\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Barcode, p.Name, p.Category, receipt.FormatAmount(p.Price), p.Stock)
	}
	_ = tw.Flush()
}

// add looks the product up locally first, then by barcode on the backend.
func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("add <id|barcode> [qty]")
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usage("quantity must be a whole number")
		}
		qty = n
	}

	p, ok := a.catalog.Find(args[0])
	if !ok {
		p, ok = a.catalog.ByBarcode(args[0])
	}
	if !ok {
		found, err := a.backend.GetProductByBarcode(ctx, args[0])
		if err != nil {
			return err
		}
		if found == nil {
			return usage("no product " + strconv.Quote(args[0]))
		}
		p = *found
	}
	if err := a.cart.Add(p, qty); err != nil {
		return err
	}
	a.showCart()
	return nil
}

func (a *app) qty(args []string) error {
	if len(args) != 2 {
		return usage("qty <id> <qty>")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return usage("quantity must be a whole number")
	}
	if err := a.cart.UpdateQuantity(args[0], n, a.catalog); err != nil {
		return err
	}
	a.showCart()
	return nil
}

func (a *app) discount(args []string) error {
	if len(args) != 2 {
		return usage("discount <id> <amount>")
	}
	if err := a.cart.UpdateDiscount(args[0], checkout.ParseAmount(args[1])); err != nil {
		return err
	}
	a.showCart()
	return nil
}

func (a *app) showCart() {
	if a.cart.IsEmpty() {
		a.printf("cart is empty\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tDISC\tTOTAL")
	for _, l := range a.cart.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", l.ProductID, l.Name, l.Quantity,
			receipt.FormatAmount(l.Price), receipt.FormatAmount(l.Discount), receipt.FormatAmount(l.Total))
	}
	fmt.Fprintf(tw, "\t\t\t\tTOTAL\t%s\n", receipt.FormatAmount(a.cart.Total()))
	_ = tw.Flush()
}

// paymentArgs reads "[paid] [percentage|fixed <value>]" in either order.
func paymentArgs(method domain.PaymentMethod, args []string) (checkout.Request, error) {
	req := checkout.Request{Method: method, DiscountType: domain.DiscountPercentage}
	for i := 0; i < len(args); i++ {
		switch t := domain.DiscountType(args[i]); t {
		case domain.DiscountPercentage, domain.DiscountFixed:
			if i+1 >= len(args) {
				return req, usage(string(t) + " needs a value")
			}
			req.DiscountType = t
			req.DiscountValue = checkout.ParseAmount(args[i+1])
			i++
		default:
			req.PaymentAmount = checkout.ParseAmount(args[i])
		}
	}
	return req, nil
}

func (a *app) showBreakdown(b checkout.Breakdown) {
	a.printf("total %s  discount %s  due %s  paid %s", receipt.FormatAmount(b.Total), receipt.FormatAmount(b.Discount),
		receipt.FormatAmount(b.DiscountedTotal), receipt.FormatAmount(b.PaymentAmount))
	switch {
	case b.Shortage.IsPositive():
		a.printf("  short %s\n", receipt.FormatAmount(b.Shortage))
	default:
		a.printf("  change %s\n", receipt.FormatAmount(b.Change))
	}
}

func (a *app) pay(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("pay <cash|card|qris|ewallet> [paid] [percentage|fixed <value>]")
	}
	req, err := paymentArgs(domain.PaymentMethod(args[0]), args[1:])
	if err != nil {
		return err
	}
	res, err := a.checkout.Process(ctx, req)
	if res != nil {
		a.printf("sale %s recorded\n", res.TransactionID)
		a.showBreakdown(res.Breakdown)
		if res.RefreshErr != nil {
			a.printErr(res.RefreshErr)
		}
		if req.Method == domain.PaymentCash {
			if rerr := a.ledger.Refresh(ctx); rerr != nil {
				a.printErr(rerr)
			}
		}
	}
	return err
}

func (a *app) shift(ctx context.Context, args []string) error {
	if len(args) == 0 {
		if err := a.ledger.Refresh(ctx); err != nil {
			return err
		}
		sh, ok := a.ledger.Current()
		if !ok {
			a.printf("%s\n", a.ledger.State())
			return nil
		}
		a.printf("shift %s since %s\n  initial %s  expected %s\n", sh.ID, sh.StartTime.Local().Format("2006-01-02 15:04"),
			receipt.FormatAmount(sh.InitialCash), receipt.FormatAmount(sh.ExpectedCash))
		return nil
	}

	if len(args) < 2 {
		return usage("shift open|preview|close <cash>")
	}
	cash, err := ledger.ParseCash(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "open":
		id, err := a.ledger.Open(ctx, cash)
		if err != nil {
			return err
		}
		a.printf("shift %s opened\n", id)
	case "preview":
		diff, err := a.ledger.PreviewClose(cash)
		if err != nil {
			return err
		}
		a.printf("difference %s\n", receipt.FormatAmount(diff))
	case "close":
		report, err := a.ledger.Close(ctx, cash, strings.Join(args[2:], " "))
		if report != nil {
			sum := report.Data.CashSummary
			a.printf("shift closed: expected %s, counted %s\n", receipt.FormatAmount(sum.ExpectedCash), receipt.FormatAmount(cash))
			if sum.Difference != nil {
				a.printf("difference %s\n", receipt.FormatAmount(*sum.Difference))
			}
		}
		return err
	default:
		return usage("shift open|preview|close <cash>")
	}
	return nil
}

func (a *app) movement(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("movement <cash_in|cash_out|adjustment> <amount> [reason]")
	}
	amount, err := ledger.ParseCash(args[1])
	if err != nil {
		return err
	}
	id, err := a.ledger.RecordMovement(ctx, domain.MovementType(args[0]), amount, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	a.printf("movement %s recorded\n", id)
	return nil
}

func (a *app) movements(ctx context.Context) error {
	list, err := a.ledger.Movements(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tAMOUNT\tBY\tREASON")
	for _, m := range list {
		reason := ""
		if m.Reason != nil {
			reason = *m.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Timestamp.Local().Format("15:04"), m.MovementType,
			receipt.FormatAmount(m.Amount), m.UserName, reason)
	}
	_ = tw.Flush()
	sum := ledger.Summarize(list)
	a.printf("in %s  out %s  net %s\n", receipt.FormatAmount(sum.TotalCashIn), receipt.FormatAmount(sum.TotalCashOut), receipt.FormatAmount(sum.NetMovement))
	return nil
}

// historyFilter reads "[period] [method] [search...]".
func historyFilter(args []string) history.Filter {
	f := history.Filter{Period: history.PeriodAll}
	if len(args) > 0 {
		if p := history.ParsePeriod(args[0]); p != history.PeriodAll || args[0] == string(history.PeriodAll) {
			f.Period = p
			args = args[1:]
		}
	}
	if len(args) > 0 {
		if m := domain.PaymentMethod(args[0]); m.Valid() {
			f.Method = m
			args = args[1:]
		}
	}
	f.Search = strings.Join(args, " ")
	return f
}

func (a *app) history(ctx context.Context, args []string) error {
	txs, err := a.backend.GetTransactions(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	list := history.Apply(txs, historyFilter(args), now)

	tw := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tMETHOD\tTOTAL\tITEMS")
	for _, tx := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Timestamp.Local().Format("2006-01-02 15:04"), tx.PaymentMethod,
			receipt.FormatAmount(tx.DiscountedTotal), export.ItemsSummary(tx.Items, ", "))
	}
	_ = tw.Flush()
	sum := history.Summarize(list)
	a.printf("%d transactions, revenue %s, average %s\n", sum.Count, receipt.FormatAmount(sum.Revenue), receipt.FormatAmount(sum.Average))
	return nil
}

// export saves the backend's export file. With history filters the fetched
// transactions are filtered and rendered locally instead.
func (a *app) export(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("export <csv|xlsx> <path> [period] [method] [search]")
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		return usage(err.Error())
	}

	var data []byte
	if len(args) == 2 {
		data, err = a.backend.ExportTransactions(ctx, format)
	} else {
		data, err = a.exportFiltered(ctx, format, historyFilter(args[2:]))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	a.printf("wrote %s\n", args[1])
	return nil
}

func (a *app) exportFiltered(ctx context.Context, format string, f history.Filter) ([]byte, error) {
	txs, err := a.backend.GetTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return export.Transactions(format, history.Apply(txs, f, time.Now()))
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// printErr shows err by kind: validation problems as hints, connection
// trouble as such, everything else verbatim.
func (a *app) printErr(err error) {
	var se *cart.StockError
	switch {
	case errors.As(err, &se):
		a.printf("! %v\n", se)
	case apperr.KindOf(err) == apperr.Validation:
		a.printf("! %v\n", err)
	case apperr.KindOf(err) == apperr.Connection:
		a.printf("! cannot reach the backend: %v\n", err)
	default:
		a.printf("! error: %v\n", err)
	}
}

func usage(msg string) error {
	return apperr.Invalid("till", errUsage, msg)
}

var errUsage = errors.New("usage")
