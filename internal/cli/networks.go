package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List supported networks",
	RunE:  runNetworks,
}

func init() {
	rootCmd.AddCommand(networksCmd)
}

func runNetworks(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println(titleStyle.Render("Supported networks:"))
	for _, n := range a.registry.All() {
		fmt.Printf("  %-14s %-24s chain %-10d min send %s %s\n",
			n.Name, n.Label, n.ChainID, n.MinSend, n.NativeSymbol)
		for _, u := range n.RPCURLs {
			fmt.Println(dimStyle.Render("                 " + u))
		}
	}
	return nil
}
