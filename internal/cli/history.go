package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded transfers",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Number of transfers to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.store.History(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No transfers recorded yet.")
		return nil
	}

	fmt.Println(titleStyle.Render("Transfer history:"))
	for _, rec := range records {
		symbol := ""
		if net, err := a.registry.Resolve(rec.ChainID); err == nil {
			symbol = net.NativeSymbol
		}
		line := fmt.Sprintf("  %s  %s %s -> %s  fee %s  [%s]",
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Amount, symbol, rec.Recipient, rec.PlatformFee, rec.Status)
		fmt.Println(line)
		if rec.PrincipalTxHash != "" {
			fmt.Println(dimStyle.Render("    principal " + rec.PrincipalTxHash))
		} else if rec.FeeTxHash != "" {
			// Fee paid, principal never went out: flag it for follow-up.
			fmt.Println(errorStyle.Render("    fee paid without principal: " + rec.FeeTxHash))
		}
	}
	return nil
}
