package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodix/walletd/internal/keyring"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets and accounts",
	Long:  `Create, import, and manage custodied accounts securely.`,
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	RunE:  runWalletCreate,
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a wallet from private key",
	RunE:  runWalletImport,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE:  runWalletList,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)

	walletImportCmd.Flags().String("key", "", "Private key to import (hex, with or without 0x prefix)")
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after password input
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	km, err := keyring.NewManager(getDataDir())
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	password, err := readPassword("Enter password for new wallet: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	account, err := km.CreateAccount(password)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Println("\n" + successStyle.Render("Wallet created successfully!"))
	fmt.Println(kv("Address", account.Address.Hex()))
	fmt.Println(kv("Keystore", account.URL.Path))
	fmt.Println("\nIMPORTANT: Back up your keystore file and remember your password!")

	return nil
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	privateKey, _ := cmd.Flags().GetString("key")

	if privateKey == "" {
		fmt.Print("Enter private key (hex): ")
		var input string
		_, _ = fmt.Scanln(&input)
		privateKey = strings.TrimSpace(input)
	}

	if privateKey == "" {
		return fmt.Errorf("private key is required")
	}

	km, err := keyring.NewManager(getDataDir())
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	password, err := readPassword("Enter password to encrypt wallet: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	account, err := km.ImportKey(privateKey, password)
	if err != nil {
		return fmt.Errorf("failed to import key: %w", err)
	}

	fmt.Println("\n" + successStyle.Render("Wallet imported successfully!"))
	fmt.Println(kv("Address", account.Address.Hex()))

	return nil
}

func runWalletList(cmd *cobra.Command, args []string) error {
	km, err := keyring.NewManager(getDataDir())
	if err != nil {
		return fmt.Errorf("failed to initialize keystore: %w", err)
	}

	accounts := km.Accounts()
	if len(accounts) == 0 {
		fmt.Println("No wallets found. Create one with 'walletd wallet create'")
		return nil
	}

	fmt.Println(titleStyle.Render("Wallets:"))
	for i, acc := range accounts {
		fmt.Printf("  %d. %s\n", i+1, acc.Address.Hex())
	}

	return nil
}
