package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/internal/service"
	"go-variant-inventory/pkg/config"
	"go-variant-inventory/pkg/database"
	"go-variant-inventory/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const cliActor = "stockctl"

// services is the wiring the commands share. The CLI writes the log inline and
// publishes no live events.
type services struct {
	db       *gorm.DB
	stock    service.StockService
	variants service.VariantService
	rollup   service.RollupService
}

// boot loads config and opens the database connection.
func boot() (*services, error) {
	cfg := config.Load()
	logger.Setup(cfg.IsProduction())

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}

	productRepo := repository.NewProductRepo(db)
	variantRepo := repository.NewVariantRepo(db)
	recorder := audit.NewInlineRecorder(repository.NewTransactionRepo(db), cfg.AuditRetries)

	return &services{
		db:       db,
		stock:    service.NewStockService(variantRepo, recorder, service.NopNotifier{}, db, cfg.StrictDecrements),
		variants: service.NewVariantService(productRepo, variantRepo, service.NopNotifier{}, db, cfg.DefaultLowStockThreshold),
		rollup:   service.NewRollupService(productRepo, variantRepo, db),
	}, nil
}

func (s *services) close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Manage variant stock from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newProvisionCmd(),
		newAdjustCmd(),
		newCheckCmd(),
		newTotalCmd(),
	)
	return root
}

// stockctl migrate
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the inventory tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := boot()
			if err != nil {
				return err
			}
			defer svc.close()
			if err := database.Migrate(svc.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

// stockctl provision --product ID --colors Red,Blue --sizes S,M --seed Red-S=3
func newProvisionCmd() *cobra.Command {
	var (
		productID string
		colors    []string
		sizes     []string
		seeds     map[string]string
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create every color × size variant of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid --product: %w", err)
			}
			inventory := make(map[string]int, len(seeds))
			for key, raw := range seeds {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("invalid --seed %s=%s", key, raw)
				}
				inventory[key] = n
			}

			req := service.CreateVariantsRequest{
				ProductID:      id,
				Colors:         colors,
				Sizes:          sizes,
				InventoryByKey: inventory,
			}
			if cmd.Flags().Changed("threshold") {
				req.DefaultThreshold = &threshold
			}

			svc, err := boot()
			if err != nil {
				return err
			}
			defer svc.close()
			ctx := context.Background()
			created, err := svc.variants.CreateVariants(ctx, req, cliActor)
			if err != nil {
				return err
			}
			total, err := svc.rollup.EnableVariantTracking(ctx, id, cliActor)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range created {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\n", v.SKU, v.Color, v.Size, v.InventoryCount)
			}
			fmt.Fprintf(out, "created %d variants, total stock %d\n", len(created), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().StringSliceVar(&colors, "colors", nil, "comma separated colors")
	cmd.Flags().StringSliceVar(&sizes, "sizes", nil, "comma separated sizes")
	cmd.Flags().StringToStringVar(&seeds, "seed", nil, "initial stock as Color-Size=N")
	cmd.Flags().IntVar(&threshold, "threshold", model.DefaultLowStockThreshold, "low stock threshold")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

// stockctl adjust --product ID --color Red --size M --delta -2 --type sale
func newAdjustCmd() *cobra.Command {
	var (
		productID, color, size, txType, notes string
		delta                                 int
	)
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Apply a signed stock change to one variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid --product: %w", err)
			}
			svc, err := boot()
			if err != nil {
				return err
			}
			defer svc.close()
			ctx := context.Background()
			v, err := svc.stock.Adjust(ctx, service.AdjustRequest{
				ProductID:       id,
				Color:           color,
				Size:            size,
				QuantityChange:  delta,
				TransactionType: model.TransactionType(strings.ToLower(txType)),
				Notes:           notes,
			}, cliActor)
			if err != nil {
				return err
			}
			if _, err := svc.rollup.SyncProductCount(ctx, id, cliActor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now %d (%s)\n", v.SKU, v.InventoryCount, v.Status())
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().StringVar(&color, "color", "", "variant color")
	cmd.Flags().StringVar(&size, "size", "", "variant size")
	cmd.Flags().IntVar(&delta, "delta", 0, "signed quantity change")
	cmd.Flags().StringVar(&txType, "type", string(model.TxAdjustment), "restock | adjustment | return | sale")
	cmd.Flags().StringVar(&notes, "notes", "", "free text stored in the log")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

// stockctl check --product ID --item Red/M=2 --item Blue/S=1
func newCheckCmd() *cobra.Command {
	var (
		productID string
		items     []string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether the given quantities are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid --product: %w", err)
			}
			requests, err := parseItems(id, items)
			if err != nil {
				return err
			}
			svc, err := boot()
			if err != nil {
				return err
			}
			defer svc.close()
			result, err := svc.stock.CheckStock(context.Background(), requests)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, u := range result.Unavailable {
				fmt.Fprintf(out, "unavailable %s/%s: requested %d, available %d\n", u.Color, u.Size, u.Requested, u.Available)
			}
			fmt.Fprintf(out, "available: %t\n", result.Available)
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Color/Size=Quantity, repeatable")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

// stockctl total --product ID
func newTotalCmd() *cobra.Command {
	var productID string
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Print the stock rollup of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid --product: %w", err)
			}
			svc, err := boot()
			if err != nil {
				return err
			}
			defer svc.close()
			summary, err := svc.rollup.ProductSummary(context.Background(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range summary.Variants {
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", v.Color, v.Size, v.InventoryCount, v.Status)
			}
			fmt.Fprintf(out, "total %d (%s)\n", summary.TotalStock, summary.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

// parseItems reads "Color/Size=Quantity" arguments.
func parseItems(productID uuid.UUID, items []string) ([]model.StockCheckRequest, error) {
	requests := make([]model.StockCheckRequest, 0, len(items))
	for _, item := range items {
		variant, qty, ok := strings.Cut(item, "=")
		color, size, ok2 := strings.Cut(variant, "/")
		if !ok || !ok2 {
			return nil, fmt.Errorf("invalid --item %q, want Color/Size=Quantity", item)
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in --item %q", item)
		}
		requests = append(requests, model.StockCheckRequest{
			ProductID:         productID,
			Color:             color,
			Size:              size,
			RequestedQuantity: n,
		})
	}
	return requests, nil
}
