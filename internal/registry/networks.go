package registry

import "github.com/shopspring/decimal"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultNetworks returns the compiled-in network table. MinSend and
// GasReserve are denominated in the chain's native unit.
func DefaultNetworks() []Network {
	return []Network{
		{
			ChainID:      1,
			Name:         "eth",
			Label:        "Ethereum Mainnet",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth", "https://cloudflare-eth.com"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.002"),
		},
		{
			ChainID:      56,
			Name:         "bnb",
			Label:        "BNB Smart Chain",
			NativeSymbol: "BNB",
			RPCURLs:      []string{"https://bsc-dataseed.binance.org", "https://bsc-dataseed1.defibit.io", "https://rpc.ankr.com/bsc"},
			MinSend:      dec("0.0005"),
			GasReserve:   dec("0.0005"),
		},
		{
			ChainID:      137,
			Name:         "polygon",
			Label:        "Polygon",
			NativeSymbol: "POL",
			RPCURLs:      []string{"https://polygon-rpc.com", "https://polygon.llamarpc.com"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.05"),
		},
		{
			ChainID:      8453,
			Name:         "base",
			Label:        "Base",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0002"),
		},
		{
			ChainID:      42161,
			Name:         "arbitrum",
			Label:        "Arbitrum One",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0002"),
		},
		{
			ChainID:      10,
			Name:         "optimism",
			Label:        "OP Mainnet",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0002"),
		},
		{
			ChainID:      43114,
			Name:         "avalanche",
			Label:        "Avalanche C-Chain",
			NativeSymbol: "AVAX",
			RPCURLs:      []string{"https://api.avax.network/ext/bc/C/rpc", "https://rpc.ankr.com/avalanche"},
			MinSend:      dec("0.001"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      250,
			Name:         "fantom",
			Label:        "Fantom Opera",
			NativeSymbol: "FTM",
			RPCURLs:      []string{"https://rpc.ftm.tools", "https://rpc.ankr.com/fantom"},
			MinSend:      dec("0.1"),
			GasReserve:   dec("0.5"),
		},
		{
			ChainID:      100,
			Name:         "gnosis",
			Label:        "Gnosis Chain",
			NativeSymbol: "xDAI",
			RPCURLs:      []string{"https://rpc.gnosischain.com", "https://rpc.ankr.com/gnosis"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      42220,
			Name:         "celo",
			Label:        "Celo",
			NativeSymbol: "CELO",
			RPCURLs:      []string{"https://forno.celo.org", "https://rpc.ankr.com/celo"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      1284,
			Name:         "moonbeam",
			Label:        "Moonbeam",
			NativeSymbol: "GLMR",
			RPCURLs:      []string{"https://rpc.api.moonbeam.network", "https://moonbeam.public.blastapi.io"},
			MinSend:      dec("0.1"),
			GasReserve:   dec("0.1"),
		},
		{
			ChainID:      1285,
			Name:         "moonriver",
			Label:        "Moonriver",
			NativeSymbol: "MOVR",
			RPCURLs:      []string{"https://rpc.api.moonriver.moonbeam.network"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      25,
			Name:         "cronos",
			Label:        "Cronos",
			NativeSymbol: "CRO",
			RPCURLs:      []string{"https://evm.cronos.org", "https://cronos.blockpi.network/v1/rpc/public"},
			MinSend:      dec("0.1"),
			GasReserve:   dec("0.5"),
		},
		{
			ChainID:      1313161554,
			Name:         "aurora",
			Label:        "Aurora",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://mainnet.aurora.dev"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0001"),
		},
		{
			ChainID:      1666600000,
			Name:         "harmony",
			Label:        "Harmony One",
			NativeSymbol: "ONE",
			RPCURLs:      []string{"https://api.harmony.one", "https://rpc.ankr.com/harmony"},
			MinSend:      dec("1"),
			GasReserve:   dec("1"),
		},
		{
			ChainID:      66,
			Name:         "okc",
			Label:        "OKX Chain",
			NativeSymbol: "OKT",
			RPCURLs:      []string{"https://exchainrpc.okex.org"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      128,
			Name:         "heco",
			Label:        "Huobi ECO Chain",
			NativeSymbol: "HT",
			RPCURLs:      []string{"https://http-mainnet.hecochain.com"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      321,
			Name:         "kcc",
			Label:        "KuCoin Community Chain",
			NativeSymbol: "KCS",
			RPCURLs:      []string{"https://rpc-mainnet.kcc.network"},
			MinSend:      dec("0.01"),
			GasReserve:   dec("0.01"),
		},
		{
			ChainID:      1088,
			Name:         "metis",
			Label:        "Metis Andromeda",
			NativeSymbol: "METIS",
			RPCURLs:      []string{"https://andromeda.metis.io/?owner=1088"},
			MinSend:      dec("0.001"),
			GasReserve:   dec("0.005"),
		},
		{
			ChainID:      59144,
			Name:         "linea",
			Label:        "Linea",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://rpc.linea.build", "https://linea.blockpi.network/v1/rpc/public"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0005"),
		},
		{
			ChainID:      534352,
			Name:         "scroll",
			Label:        "Scroll",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://rpc.scroll.io", "https://scroll.blockpi.network/v1/rpc/public"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0005"),
		},
		{
			ChainID:      324,
			Name:         "zksync",
			Label:        "zkSync Era",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://mainnet.era.zksync.io"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0005"),
		},
		{
			ChainID:      11155111,
			Name:         "sepolia",
			Label:        "Sepolia Testnet",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://rpc.sepolia.org", "https://sepolia.drpc.org"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0005"),
		},
		{
			ChainID:      84532,
			Name:         "base-sepolia",
			Label:        "Base Sepolia Testnet",
			NativeSymbol: "ETH",
			RPCURLs:      []string{"https://sepolia.base.org"},
			MinSend:      dec("0.0001"),
			GasReserve:   dec("0.0002"),
		},
	}
}
