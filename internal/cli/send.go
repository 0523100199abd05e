package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/keyring"
	"github.com/custodix/walletd/internal/reconcile"
	"github.com/custodix/walletd/internal/tracker"
	"github.com/custodix/walletd/internal/transfer"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send native funds to an address",
	Long: `Broadcast a two-leg transfer: the 3% platform fee first, then the
principal. The command quotes fees, asks for confirmation, broadcasts, and
tracks the principal transaction to a terminal state.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("from", "", "Sending wallet address (defaults to the first wallet)")
	sendCmd.Flags().String("to", "", "Recipient address (required)")
	sendCmd.Flags().String("amount", "", "Amount in native units (required)")
	sendCmd.Flags().String("speed", "average", "Speed tier: slow, average, fast")
	sendCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	sendCmd.Flags().Bool("no-track", false, "Return after broadcast without waiting for confirmation")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}

func runSend(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	amountFlag, _ := cmd.Flags().GetString("amount")
	speedFlag, _ := cmd.Flags().GetString("speed")
	fromFlag, _ := cmd.Flags().GetString("from")
	skipConfirm, _ := cmd.Flags().GetBool("yes")
	noTrack, _ := cmd.Flags().GetBool("no-track")

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

	from, err := a.senderAddress(fromFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Advisory quote shown before confirmation; the broadcaster re-fetches
	// the gas price at send time.
	speed := gas.ParseSpeed(speedFlag)
	quote, err := a.quoter.Quote(ctx, net.ChainID, amount, speed)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Send %s %s on %s", amount, net.NativeSymbol, net.Label)))
	fmt.Println(kv("From", from.Hex()))
	fmt.Println(kv("To", to))
	fmt.Println(kv("Gas fee", fmt.Sprintf("~%s %s", quote.GasFee, net.NativeSymbol)))
	fmt.Println(kv("Platform fee", fmt.Sprintf("%s %s", quote.PlatformFee, net.NativeSymbol)))
	fmt.Println(kv("Total", fmt.Sprintf("~%s %s", amount.Add(quote.TotalFee), net.NativeSymbol)))

	if !skipConfirm {
		fmt.Print("\nProceed? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// The password is collected before the live progress UI starts so the
	// prompt does not fight the terminal with bubbletea.
	password, err := readPassword(fmt.Sprintf("Password for %s: ", from.Hex()))
	if err != nil {
		return err
	}
	keys := keyring.NewKeystoreProvider(a.keystore, func(common.Address) (string, error) {
		return password, nil
	})

	platform, err := a.platformAddress()
	if err != nil {
		return err
	}

	cache := reconcile.NewBalanceCache(a.registry, a.pool, from, []uint64{net.ChainID})
	rec := reconcile.New(cache.Refresh, a.log)

	b := transfer.New(a.registry, a.pool, keys, platform, a.log)
	svc := transfer.NewService(b, a.pool, a.store, a.tracker, rec, a.log)

	req := transfer.Request{
		ChainID: net.ChainID,
		UserID:  from.Hex(),
		To:      to,
		Amount:  amount,
		Speed:   speed,
	}

	outcome, record, err := runSendUI(ctx, svc, req, !noTrack)

	// The reconciler refresh is best-effort and bounded; run it before
	// reporting so the balance snapshot reflects the transfer.
	rec.RunOnce(ctx, "transfer")

	fmt.Println()
	if outcome.FeeTxHash != "" {
		fmt.Println(kv("Fee tx", outcome.FeeTxHash))
	}
	if outcome.PrincipalTxHash != "" {
		fmt.Println(kv("Principal tx", outcome.PrincipalTxHash))
	}
	if err != nil {
		fmt.Println(errorStyle.Render("Transfer failed: " + err.Error()))
		return nil
	}

	if noTrack {
		fmt.Println(successStyle.Render("Broadcast accepted; track it with 'walletd track'."))
		return nil
	}
	printTrackResult(record)

	if bal, ok := cache.Get(net.ChainID); ok {
		fmt.Println(kv("Balance", fmt.Sprintf("%s %s", bal.Amount, bal.Symbol)))
	}
	return nil
}

func printTrackResult(record tracker.Record) {
	switch record.State {
	case tracker.StateConfirmed:
		fmt.Println(successStyle.Render("Transfer confirmed."))
	case tracker.StateReverted:
		fmt.Println(errorStyle.Render("Transfer reverted on-chain."))
	case tracker.StateDropped:
		fmt.Println(errorStyle.Render("Transaction was dropped from the mempool without being mined."))
	case tracker.StateReplaced:
		fmt.Println(errorStyle.Render("Transaction was replaced by another transaction with the same nonce."))
	case tracker.StateTimedOut:
		fmt.Println(dimStyle.Render("Still pending after all checks; verify on a block explorer."))
	default:
		fmt.Println(dimStyle.Render("Tracking stopped before a terminal state."))
	}
}

// senderAddress resolves --from, defaulting to the first wallet.
func (a *app) senderAddress(flag string) (common.Address, error) {
	if flag != "" {
		if !common.IsHexAddress(flag) {
			return common.Address{}, fmt.Errorf("invalid address: %s", flag)
		}
		return common.HexToAddress(flag), nil
	}
	accounts := a.keystore.Accounts()
	if len(accounts) == 0 {
		return common.Address{}, fmt.Errorf("no wallets found. Use --from or create a wallet first")
	}
	return accounts[0].Address, nil
}
