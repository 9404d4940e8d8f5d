package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 4-byte method selectors for the read-only calls the indexer issues.
var (
	selGlobalState = methodID("globalState()")
	selPool        = methodID("pool()")
	selSymbol      = methodID("symbol()")
	selName        = methodID("name()")
	selDecimals    = methodID("decimals()")
	selTotalSupply = methodID("totalSupply()")
)

func methodID(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// wordSize is the ABI word size in bytes.
const wordSize = 32

// GlobalState reads the pool's current square-root price (2^96 fixed point)
// and tick. Implements accounting.ChainReader.
func (c *HTTPClient) GlobalState(ctx context.Context, pool common.Address) (*big.Int, int32, error) {
	out, err := c.CallContract(ctx, pool, selGlobalState)
	if err != nil {
		return nil, 0, fmt.Errorf("globalState %s: %w", pool.Hex(), err)
	}
	if len(out) < 2*wordSize {
		return nil, 0, fmt.Errorf("globalState %s: short return (%d bytes)", pool.Hex(), len(out))
	}
	sqrtPrice := new(big.Int).SetBytes(out[:wordSize])
	tick := decodeSigned(out[wordSize : 2*wordSize])
	return sqrtPrice, int32(tick.Int64()), nil
}

// VaultPool reads the AMM pool address bound to a vault contract.
// Implements accounting.ChainReader.
func (c *HTTPClient) VaultPool(ctx context.Context, vault common.Address) (common.Address, error) {
	out, err := c.CallContract(ctx, vault, selPool)
	if err != nil {
		return common.Address{}, fmt.Errorf("pool %s: %w", vault.Hex(), err)
	}
	if len(out) < wordSize {
		return common.Address{}, fmt.Errorf("pool %s: short return (%d bytes)", vault.Hex(), len(out))
	}
	return common.BytesToAddress(out[:wordSize]), nil
}

// ERC20Symbol reads symbol(). Handles both dynamic-string and legacy
// bytes32 encodings.
func (c *HTTPClient) ERC20Symbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.CallContract(ctx, token, selSymbol)
	if err != nil {
		return "", fmt.Errorf("symbol %s: %w", token.Hex(), err)
	}
	return decodeString(out)
}

// ERC20Name reads name(), with the same encoding handling as ERC20Symbol.
func (c *HTTPClient) ERC20Name(ctx context.Context, token common.Address) (string, error) {
	out, err := c.CallContract(ctx, token, selName)
	if err != nil {
		return "", fmt.Errorf("name %s: %w", token.Hex(), err)
	}
	return decodeString(out)
}

// ERC20Decimals reads decimals().
func (c *HTTPClient) ERC20Decimals(ctx context.Context, token common.Address) (int32, error) {
	out, err := c.CallContract(ctx, token, selDecimals)
	if err != nil {
		return 0, fmt.Errorf("decimals %s: %w", token.Hex(), err)
	}
	if len(out) < wordSize {
		return 0, fmt.Errorf("decimals %s: short return (%d bytes)", token.Hex(), len(out))
	}
	return int32(new(big.Int).SetBytes(out[:wordSize]).Int64()), nil
}

// ERC20TotalSupply reads totalSupply().
func (c *HTTPClient) ERC20TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	out, err := c.CallContract(ctx, token, selTotalSupply)
	if err != nil {
		return nil, fmt.Errorf("totalSupply %s: %w", token.Hex(), err)
	}
	if len(out) < wordSize {
		return nil, fmt.Errorf("totalSupply %s: short return (%d bytes)", token.Hex(), len(out))
	}
	return new(big.Int).SetBytes(out[:wordSize]), nil
}

// decodeSigned interprets one ABI word as a signed (two's complement) integer.
func decodeSigned(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if len(word) > 0 && word[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), uint(len(word))*8)
		v.Sub(v, max)
	}
	return v
}

// decodeString decodes an ABI return value that is either a dynamic string
// (offset, length, bytes) or a single bytes32 word.
func decodeString(out []byte) (string, error) {
	if len(out) == wordSize {
		return strings.TrimRight(string(out), "\x00"), nil
	}
	if len(out) < 2*wordSize {
		return "", fmt.Errorf("string return too short (%d bytes)", len(out))
	}
	// Compare by subtraction: offset and length come from untrusted return
	// data and adding wordSize to values near 2^64 would wrap around.
	total := uint64(len(out))
	offset := new(big.Int).SetBytes(out[:wordSize]).Uint64()
	if offset > total-wordSize {
		return "", fmt.Errorf("string offset out of range")
	}
	length := new(big.Int).SetBytes(out[offset : offset+wordSize]).Uint64()
	start := offset + wordSize
	if length > total-start {
		return "", fmt.Errorf("string length out of range")
	}
	return string(out[start : start+length]), nil
}
