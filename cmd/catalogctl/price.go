package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/catalogctl/internal/config"
	"github.com/storeops/catalogctl/internal/pricing"
)

type priceOptions struct {
	ConfigPath string
	Cost       float64
	Category   string
}

func newPriceCmd(root *rootFlags) *cobra.Command {
	opts := priceOptions{}

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Compute a price breakdown without touching the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrice(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to pipeline configuration file")
	cmd.Flags().Float64Var(&opts.Cost, "cost", 0, "Supplier cost of the product")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Category used to select the pricing rule")
	cmd.MarkFlagRequired("config") //nolint:errcheck
	cmd.MarkFlagRequired("cost")   //nolint:errcheck

	return cmd
}

func runPrice(cmd *cobra.Command, opts priceOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	engine, err := pricing.NewEngine(cfg.RuleSet(), cfg.InstallmentPlan())
	if err != nil {
		return err
	}

	breakdown, err := engine.Compute(opts.Cost, opts.Category)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cost:          %.2f\n", opts.Cost)
	fmt.Fprintf(out, "landed:        %.2f\n", breakdown.Landed)
	fmt.Fprintf(out, "import tax:    %.2f\n", breakdown.ImportTax)
	fmt.Fprintf(out, "vat (inside):  %.2f\n", breakdown.VATAmount)
	fmt.Fprintf(out, "raw price:     %.2f\n", breakdown.RawPrice)
	fmt.Fprintf(out, "final price:   %.2f\n", breakdown.FinalPrice)
	fmt.Fprintf(out, "compare at:    %.2f\n", breakdown.CompareAt)
	fmt.Fprintf(out, "margin:        %.2f (%.1f%%)\n", breakdown.MarginAmount, breakdown.MarginRatio*100)

	for _, entry := range breakdown.Installments {
		note := "interest-free"
		if !entry.InterestFree {
			note = fmt.Sprintf("+%.2f%%/mo", entry.SurchargeRate*100)
		}
		fmt.Fprintf(out, "  %2dx %.2f (%s)\n", entry.Count, entry.Amount, note)
	}

	return nil
}
