package value

import "strings"

// Network описывает EVM-сеть, в которой принимается оплата или проводится расчёт.
type Network struct {
	Name string
	// Label читаемое название сети для документов.
	Label       string
	ChainID     int64
	ExplorerURL string
}

const (
	DefaultNetwork = "sepolia"

	// OtherNetwork заменяет имя неизвестной сети.
	OtherNetwork = "other"
)

//nolint:gochecknoglobals
var networks = map[string]Network{
	"sepolia": {
		Name: "sepolia", Label: "Sepolia", ChainID: 11155111, ExplorerURL: "https://sepolia.etherscan.io",
	},
	"mainnet": {
		Name: "mainnet", Label: "Ethereum", ChainID: 1, ExplorerURL: "https://etherscan.io",
	},
	"base-sepolia": {
		Name: "base-sepolia", Label: "Base Sepolia", ChainID: 84532, ExplorerURL: "https://sepolia.basescan.org",
	},
	"base": {
		Name: "base", Label: "Base", ChainID: 8453, ExplorerURL: "https://basescan.org",
	},
}

func LookupNetwork(name string) (Network, bool) {
	n, ok := networks[strings.ToLower(name)]

	return n, ok
}

// CanonicalNetwork возвращает каноническое имя сети или OtherNetwork.
func CanonicalNetwork(name string) string {
	if n, ok := LookupNetwork(name); ok {
		return n.Name
	}

	return OtherNetwork
}

// ExplorerTxURL строит ссылку на транзакцию в обозревателе сети.
// Для неизвестных сетей используется Sepolia.
func ExplorerTxURL(network, txHash string) string {
	n, ok := LookupNetwork(network)
	if !ok {
		n = networks[DefaultNetwork]
	}

	return n.ExplorerURL + "/tx/" + txHash
}
