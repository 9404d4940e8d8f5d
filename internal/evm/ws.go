package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient maintains one eth_subscribe("logs") subscription over a
// gorilla/websocket connection, reconnecting and resubscribing on failure.
// The address filter can be widened at runtime as new vaults appear.
type WSClient struct {
	endpoint string
	config   WSConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// addresses is the active filter, guarded by addrMu; a resubscribe
	// replays it after reconnect or widening.
	addresses []common.Address
	addrMu    sync.Mutex

	subID string // current subscription id, connMu-guarded

	logs chan Log
	done chan struct{}
	wg   sync.WaitGroup
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
	Method string          `json:"method,omitempty"`
	Params *struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params,omitempty"`
}

// NewWSClient connects to the endpoint and starts the read loop. Logs flow on
// the channel returned by Logs once SubscribeLogs has been called.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig, logger *zap.Logger) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		// Blocking send with a burst buffer; the consumer is the
		// strictly sequential ingestion runner.
		logs: make(chan Log, 4096),
		done: make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.subID = ""
	c.connMu.Unlock()
	return nil
}

// Logs returns the shared log channel. It closes when the client closes.
func (c *WSClient) Logs() <-chan Log {
	return c.logs
}

// SubscribeLogs installs (or replaces) the log subscription for the given
// contract addresses.
func (c *WSClient) SubscribeLogs(addresses []common.Address) error {
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}

	c.addrMu.Lock()
	c.addresses = append([]common.Address(nil), addresses...)
	c.addrMu.Unlock()

	return c.resubscribe()
}

// AddAddress widens the active filter with one more contract.
func (c *WSClient) AddAddress(addr common.Address) error {
	c.addrMu.Lock()
	for _, a := range c.addresses {
		if a == addr {
			c.addrMu.Unlock()
			return nil
		}
	}
	c.addresses = append(c.addresses, addr)
	c.addrMu.Unlock()

	return c.resubscribe()
}

// resubscribe unsubscribes the current subscription, if any, and installs a
// fresh one with the current address filter. Confirmation is matched in the
// read loop; failures surface through reconnect.
func (c *WSClient) resubscribe() error {
	c.addrMu.Lock()
	filter := logFilter{Address: append([]common.Address(nil), c.addresses...)}
	c.addrMu.Unlock()

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	if c.subID != "" {
		unsub := wsRequest{
			JSONRPC: "2.0",
			ID:      c.requestID.Add(1),
			Method:  "eth_unsubscribe",
			Params:  []interface{}{c.subID},
		}
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		if err := c.conn.WriteJSON(unsub); err != nil {
			return fmt.Errorf("write unsubscribe: %w", err)
		}
		c.subID = ""
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "eth_subscribe",
		Params:  []interface{}{"logs", filter},
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the connection and the log channel.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.logs)
	return nil
}

// readLoop reads messages, dispatching log notifications and subscription
// confirmations, reconnecting with backoff on read failure.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn("websocket read failed, reconnecting", zap.Error(err))
			c.reconnect(&reconnectDelay)
			continue
		}
		reconnectDelay = c.config.ReconnectDelay

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("websocket message unmarshal failed", zap.Error(err))
			continue
		}

		switch {
		case msg.Method == "eth_subscription" && msg.Params != nil:
			var log Log
			if err := json.Unmarshal(msg.Params.Result, &log); err != nil {
				c.logger.Warn("log notification unmarshal failed", zap.Error(err))
				continue
			}
			select {
			case c.logs <- log:
			case <-c.done:
				return
			}
		case msg.ID != 0 && msg.Error != nil:
			c.logger.Warn("subscription request failed", zap.Error(msg.Error))
		case msg.ID != 0 && msg.Result != nil:
			var subID string
			if err := json.Unmarshal(msg.Result, &subID); err == nil && subID != "" {
				c.connMu.Lock()
				c.subID = subID
				c.connMu.Unlock()
			}
		}
	}
}

// reconnect re-dials and replays the active subscription.
func (c *WSClient) reconnect(delay *time.Duration) {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	for !c.closed.Load() {
		select {
		case <-c.done:
			return
		case <-time.After(*delay):
		}

		*delay *= 2
		if *delay > c.config.MaxReconnectDelay {
			*delay = c.config.MaxReconnectDelay
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.connect(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("websocket reconnect failed", zap.Error(err))
			continue
		}

		if err := c.resubscribe(); err != nil {
			c.logger.Warn("resubscribe after reconnect failed", zap.Error(err))
			continue
		}

		c.logger.Info("websocket reconnected")
		return
	}
}
