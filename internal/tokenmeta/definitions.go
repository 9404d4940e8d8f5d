// Package tokenmeta resolves ERC20 token metadata for vault bookkeeping.
// On-chain reads come first; a static definition table covers tokens with
// broken or non-standard metadata methods, and documented defaults cover
// everything else so that resolution never fails.
package tokenmeta

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Definition is a hardcoded token description for contracts whose metadata
// methods revert or return non-standard encodings.
type Definition struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals int32
}

var staticDefinitions = []Definition{
	{Address: common.HexToAddress("0x3a98250f98dd388c211206983453837c8365bdc1"), Symbol: "shMON", Name: "ShMonad", Decimals: 18},
	{Address: common.HexToAddress("0xb2f82d0f38dc453d596ad40a37799446cc89274a"), Symbol: "aprMON", Name: "aPriori Monad LST", Decimals: 18},
	{Address: common.HexToAddress("0xb38bb873cca844b20a9ee448a87af3626a6e1ef5"), Symbol: "MIST", Name: "MistToken", Decimals: 18},
	{Address: common.HexToAddress("0x0f0bdebf0f83cd1ee3974779bcb7315f9808c714"), Symbol: "DAK", Name: "Molandak", Decimals: 18},
	{Address: common.HexToAddress("0x6593f49ca8d3038ca002314c187b63dd348c2f94"), Symbol: "USDT", Name: "MockUSDT", Decimals: 18},
	{Address: common.HexToAddress("0xa504d654ae9b08dc9c7ef9c563d90de13ac06daa"), Symbol: "MDOG", Name: "MonadDog", Decimals: 18},
	{Address: common.HexToAddress("0xb820bf0dede889662675a09c4fd2a6998e3c8310"), Symbol: "USDT", Name: "peg usd for kiloex", Decimals: 6},
	{Address: common.HexToAddress("0xe0590015a873bf326bd645c3e1266d4db41c4e6b"), Symbol: "CHOG", Name: "Chog", Decimals: 18},
	{Address: common.HexToAddress("0xfe140e1dce99be9f4f15d657cd9b7bf622270c50"), Symbol: "YAKI", Name: "Moyaki", Decimals: 18},
	{Address: common.HexToAddress("0x1ea9099e3026e0b3f8dd6fbacaa45f30fce67431"), Symbol: "ATL", Name: "Atlantis", Decimals: 18},
	{Address: common.HexToAddress("0x3f23d172e0b0497b6aab290b4207b58c1b4ad8e0"), Symbol: "USDC.a", Name: "USDC Atlantis", Decimals: 6},
	{Address: common.HexToAddress("0x7777b6562950c7ad54d0e707aac1f4dca8a8e95a"), Symbol: "USDT.a", Name: "USDT Atlantis", Decimals: 6},
	{Address: common.HexToAddress("0xce111b02d20ad2250dcec6b71531d404fabef3e7"), Symbol: "WETH.a", Name: "WETH Atlantis", Decimals: 18},
	{Address: common.HexToAddress("0x617e6c7697cff44f2545025a8fc0199dfa6939d0"), Symbol: "WBTC.a", Name: "WBTC Atlantis", Decimals: 8},
	{Address: common.HexToAddress("0x760afe86e5de5fa0ee542fc7b7b713e1c5425701"), Symbol: "WMON", Name: "Wrapped Monad", Decimals: 18},
	{Address: common.HexToAddress("0xb5a30b0fdc5ea94a52fdc42e3e9760cb8449fb37"), Symbol: "WETH", Name: "Wrapped ETH", Decimals: 18},
	{Address: common.HexToAddress("0xf817257fed379853cde0fa4f97ab987181b1e5ea"), Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	{Address: common.HexToAddress("0x38a5c36fa8c8c9e4649b51fcd61810b14e7ce047"), Symbol: "USDC", Name: "USDC", Decimals: 18},
}

var definitionIndex = buildDefinitionIndex()

func buildDefinitionIndex() map[string]Definition {
	idx := make(map[string]Definition, len(staticDefinitions))
	for _, def := range staticDefinitions {
		idx[strings.ToLower(def.Address.Hex())] = def
	}
	return idx
}

// StaticDefinition returns the hardcoded definition for the address, if any.
func StaticDefinition(addr common.Address) (Definition, bool) {
	def, ok := definitionIndex[strings.ToLower(addr.Hex())]
	return def, ok
}

// Fallback values used when neither the contract nor the static table can
// answer.
const (
	DefaultSymbol   = "unknown"
	DefaultName     = "unknown"
	DefaultDecimals = int32(18)
)

var zeroSupply = decimal.Zero
