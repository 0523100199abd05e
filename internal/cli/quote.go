package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/oracle"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the fees for a transfer",
	Long: `Compute the gas fee, the 3% platform fee, and the total for sending an
amount on a chain. Quotes are advisory: the gas price is re-fetched at send
time.`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().String("amount", "", "Amount to send, in native units (required)")
	quoteCmd.Flags().String("speed", "average", "Speed tier: slow, average, fast")
	quoteCmd.Flags().String("fiat", "", "Also show the total in this fiat currency (needs oracle_url)")
	_ = quoteCmd.MarkFlagRequired("amount")
}

func runQuote(cmd *cobra.Command, args []string) error {
	amountFlag, _ := cmd.Flags().GetString("amount")
	speedFlag, _ := cmd.Flags().GetString("speed")
	fiat, _ := cmd.Flags().GetString("fiat")

	amount, err := decimal.NewFromString(amountFlag)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountFlag, err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	net, err := a.resolveChain(viper.GetString("chain"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quote, err := a.quoter.Quote(ctx, net.ChainID, amount, gas.ParseSpeed(speedFlag))
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Quote for %s %s on %s", amount, net.NativeSymbol, net.Label)))
	fmt.Println(kv("Gas fee", fmt.Sprintf("%s %s", quote.GasFee, net.NativeSymbol)))
	fmt.Println(kv("Platform fee", fmt.Sprintf("%s %s", quote.PlatformFee, net.NativeSymbol)))
	fmt.Println(kv("Total fee", fmt.Sprintf("%s %s", quote.TotalFee, net.NativeSymbol)))

	if fiat != "" {
		if base := viper.GetString("oracle_url"); base != "" {
			o := oracle.NewHTTPOracle(base)
			if price, err := o.Price(ctx, net.NativeSymbol, fiat); err == nil {
				total := amount.Add(quote.TotalFee).Mul(price)
				fmt.Println(kv("Total w/ fees", fmt.Sprintf("%s %s", total.Round(2), fiat)))
			} else {
				fmt.Println(dimStyle.Render("fiat conversion unavailable: " + err.Error()))
			}
		} else {
			fmt.Println(dimStyle.Render("fiat conversion needs oracle_url in config"))
		}
	}

	return nil
}
