// Command cartsim runs a local cart session against the in-memory backend:
// the same store + sync wiring an application embeds, driven from stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/festimart/cartstate/internal/cart"
	"github.com/festimart/cartstate/internal/cartsync"
	"github.com/festimart/cartstate/internal/checkout"
	"github.com/festimart/cartstate/pkg/config"
	"github.com/festimart/cartstate/pkg/logger"
	"github.com/festimart/cartstate/pkg/pricing"
	"github.com/festimart/cartstate/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartsim"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartsim",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		logg.Error(context.Background(), "failed to load catalog", err)
		os.Exit(1)
	}

	backend, err := cartsync.NewMemoryBackend(catalog)
	if err != nil {
		logg.Error(context.Background(), "failed to seed backend", err)
		os.Exit(1)
	}

	store := cart.NewStore()
	svc, err := cartsync.NewService(backend, store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build sync service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("cartsim — commands: products, add <productID> <qty>, set <lineID> <qty>, rm <lineID>, refresh, show, checkout, clear, quit")
	printCatalog(catalog)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}

		opCtx, cancel := context.WithTimeout(ctx, cfg.Sync.OpTimeout)
		runCommand(opCtx, logg, svc, store, catalog, fields)
		cancel()
	}
}

func runCommand(ctx context.Context, logg *logger.Logger, svc *cartsync.Service, store *cart.Store, catalog []types.ProductSnapshot, fields []string) {
	var err error
	switch fields[0] {
	case "products":
		printCatalog(catalog)
	case "add":
		var qty int
		if qty, err = parseQty(fields, 2); err == nil {
			err = svc.Add(ctx, fields[1], qty)
		}
	case "set":
		var qty int
		if qty, err = parseQty(fields, 2); err == nil {
			err = svc.SetQuantity(ctx, fields[1], qty)
		}
	case "rm":
		if len(fields) < 2 {
			err = fmt.Errorf("usage: rm <lineID>")
		} else {
			err = svc.Remove(ctx, fields[1])
		}
	case "refresh":
		err = svc.Refresh(ctx)
	case "clear":
		svc.Logout(ctx)
	case "show":
		printSnapshot(store.Snapshot())
	case "checkout":
		var draft *checkout.OrderDraft
		if draft, err = checkout.BuildDraft(store.Snapshot()); err == nil {
			printDraft(draft)
		}
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}

	if err != nil {
		logg.Error(ctx, "command failed", err)
		return
	}
	if fields[0] != "show" && fields[0] != "checkout" && fields[0] != "products" {
		printSnapshot(store.Snapshot())
	}
}

func parseQty(fields []string, at int) (int, error) {
	if len(fields) <= at {
		return 0, fmt.Errorf("usage: %s <id> <qty>", fields[0])
	}
	qty, err := strconv.Atoi(fields[at])
	if err != nil {
		return 0, fmt.Errorf("quantity must be an integer: %w", err)
	}
	return qty, nil
}

func loadCatalog(path string) ([]types.ProductSnapshot, error) {
	if path == "" {
		return defaultCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var catalog []types.ProductSnapshot
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return catalog, nil
}

func defaultCatalog() []types.ProductSnapshot {
	discount := func(v float64) *types.Percent {
		p := types.Percent(v)
		return &p
	}
	return []types.ProductSnapshot{
		{ID: "chair-01", Name: "Folding Chair", Unit: "piece", Stock: 200, Price: 45, Discount: discount(10)},
		{ID: "table-01", Name: "Banquet Table", Unit: "piece", Stock: 60, Price: 220},
		{ID: "tent-01", Name: "Party Tent 6x3", Unit: "piece", Stock: 8, Price: 3400, Discount: discount(5)},
		{ID: "light-01", Name: "String Lights 10m", Unit: "set", Stock: 120, Price: 180, Discount: discount(25)},
	}
}

func printCatalog(catalog []types.ProductSnapshot) {
	fmt.Println("catalog:")
	for _, p := range catalog {
		discounted := pricing.DiscountedUnitPrice(p.Price, p.Discount)
		fmt.Printf("  %-10s %-20s %8.2f", p.ID, p.Name, p.Price)
		if discounted != p.Price {
			fmt.Printf(" -> %8.2f", discounted)
		}
		fmt.Printf("  (stock %d)\n", p.Stock)
	}
}

func printSnapshot(snap cart.Snapshot) {
	if len(snap.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range snap.Items {
		fmt.Printf("  %-36s %-20s x%-3d %8.2f\n",
			line.ID, line.Product.Name, line.Quantity,
			pricing.LineDiscounted(line))
	}
	fmt.Printf("  items: %d  original: %.2f  total: %.2f\n",
		snap.TotalQuantity, snap.TotalOriginalPrice, snap.TotalPrice)
}

func printDraft(draft *checkout.OrderDraft) {
	fmt.Printf("order draft %s (%s)\n", draft.ID, draft.PaymentMethod)
	for _, line := range draft.Lines {
		fmt.Printf("  %-20s x%-3d %8.2f\n", line.Name, line.Quantity, line.LineTotal)
	}
	fmt.Printf("  subtotal: %.2f  discount: %.2f  total: %.2f\n",
		draft.Subtotal, draft.Discount, draft.Total)
}
