package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodix/walletd/internal/tracker"
)

var trackCmd = &cobra.Command{
	Use:   "track <tx-hash>",
	Short: "Track a transaction to a terminal state",
	Long: `Poll a transaction's receipt with backoff until it confirms, reverts,
or is classified as dropped, replaced, or still pending.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().String("from", "", "Sender address, used to distinguish dropped from replaced")
	trackCmd.Flags().Uint64("nonce", 0, "Nonce of the tracked transaction (with --from)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	hashArg := args[0]
	fromFlag, _ := cmd.Flags().GetString("from")
	nonceFlag, _ := cmd.Flags().GetUint64("nonce")

	if len(hashArg) != 66 || hashArg[:2] != "0x" {
		return fmt.Errorf("invalid transaction hash: %s", hashArg)
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

	backend, err := a.pool.Backend(context.Background(), net.ChainID)
	if err != nil {
		return err
	}

	watch := tracker.Watch{Hash: common.HexToHash(hashArg)}
	if fromFlag != "" {
		if !common.IsHexAddress(fromFlag) {
			return fmt.Errorf("invalid address: %s", fromFlag)
		}
		watch.From = common.HexToAddress(fromFlag)
		nonce := nonceFlag
		if cmd.Flags().Changed("nonce") {
			watch.Nonce = &nonce
		}
	}

	fmt.Println(dimStyle.Render("Tracking " + hashArg + " on " + net.Label + "..."))
	record := a.tracker.Track(cmd.Context(), backend, watch)

	fmt.Println(kv("State", string(record.State)))
	fmt.Println(kv("Attempts", fmt.Sprintf("%d", record.Retries)))
	printTrackResult(record)
	return nil
}
