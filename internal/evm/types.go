// Package evm provides the JSON-RPC access layer for the indexer: raw log
// retrieval over HTTP and WebSocket, plus the handful of read-only contract
// calls the accounting engine depends on.
package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Log is one EVM log entry as returned by eth_getLogs and eth_subscribe.
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	Index       hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

// rpcBlock is the subset of eth_getBlockByNumber the indexer reads.
type rpcBlock struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// rpcTransaction is the subset of eth_getTransactionByHash the indexer reads.
type rpcTransaction struct {
	Hash common.Hash    `json:"hash"`
	From common.Address `json:"from"`
}

// logFilter is the eth_getLogs / eth_subscribe("logs") filter object.
type logFilter struct {
	Address   []common.Address `json:"address,omitempty"`
	FromBlock string           `json:"fromBlock,omitempty"`
	ToBlock   string           `json:"toBlock,omitempty"`
}

// callArgs is the eth_call transaction object.
type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}
