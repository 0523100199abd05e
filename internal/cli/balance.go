package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/reconcile"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show native balances",
	Long:  `Fetch native balances for a wallet, on one chain or across all of them.`,
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().String("address", "", "Address to check (uses first wallet if not specified)")
	balanceCmd.Flags().Bool("all", false, "Query every supported network")
}

func runBalance(cmd *cobra.Command, args []string) error {
	addressFlag, _ := cmd.Flags().GetString("address")
	all, _ := cmd.Flags().GetBool("all")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var address common.Address
	if addressFlag != "" {
		if !common.IsHexAddress(addressFlag) {
			return fmt.Errorf("invalid address: %s", addressFlag)
		}
		address = common.HexToAddress(addressFlag)
	} else {
		address, err = a.senderAddress("")
		if err != nil {
			return err
		}
	}

	var chains []uint64
	if !all {
		net, err := a.resolveChain(viper.GetString("chain"))
		if err != nil {
			return err
		}
		chains = []uint64{net.ChainID}
	}

	cache := reconcile.NewBalanceCache(a.registry, a.pool, address, chains)
	rec := reconcile.New(cache.Refresh, a.log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	rec.RunOnce(ctx, "balance command")

	balances := cache.All()
	if len(balances) == 0 {
		return fmt.Errorf("no balances could be fetched")
	}

	fmt.Println(titleStyle.Render("Balances for " + address.Hex()))
	for _, b := range balances {
		label := fmt.Sprintf("chain %d", b.ChainID)
		if net, err := a.registry.Resolve(b.ChainID); err == nil {
			label = net.Label
		}
		fmt.Printf("  %-24s %s %s\n", label, b.Amount, b.Symbol)
	}
	if !all && len(chains) == 1 {
		printSendable(ctx, a, cache, chains[0])
	}
	return nil
}

// printSendable shows the most the wallet could send right now, after the
// two-leg gas cost and the chain's gas reserve are set aside and the 3%
// platform fee is taken out of the remainder.
func printSendable(ctx context.Context, a *app, cache *reconcile.BalanceCache, chainID uint64) {
	bal, ok := cache.Get(chainID)
	if !ok {
		return
	}
	net, err := a.registry.Resolve(chainID)
	if err != nil {
		return
	}
	backend, err := a.pool.Backend(ctx, chainID)
	if err != nil {
		return
	}
	price := gas.Estimate(ctx, backend, gas.SpeedAverage)
	quote := gas.QuoteAt(price, decimal.Zero)
	max := gas.MaxSendable(bal.Amount, quote.GasFee, net.GasReserve)
	fmt.Println(kv("Sendable", fmt.Sprintf("~%s %s", max, net.NativeSymbol)))
}
