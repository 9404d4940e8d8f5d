package ingestion

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/evm"
)

type fakeSink struct {
	events []domain.Event
	err    error
}

func (s *fakeSink) Apply(ctx context.Context, ev domain.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type fakeChainSource struct{}

func (fakeChainSource) BlockTime(ctx context.Context, number uint64) (int64, error) {
	return int64(number) * 10, nil
}

func (fakeChainSource) TransactionSender(ctx context.Context, hash common.Hash) (common.Address, error) {
	return decOrigin, nil
}

type fakeStream struct {
	ch         chan evm.Log
	subscribed [][]common.Address
	added      []common.Address
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan evm.Log, 64)}
}

func (f *fakeStream) Logs() <-chan evm.Log { return f.ch }

func (f *fakeStream) SubscribeLogs(addresses []common.Address) error {
	f.subscribed = append(f.subscribed, addresses)
	return nil
}

func (f *fakeStream) AddAddress(addr common.Address) error {
	f.added = append(f.added, addr)
	return nil
}

// transferLog builds a share mint log on the test vault; value doubles as a
// marker to assert processing order.
func transferLog(block uint64, index uint, value int64) evm.Log {
	return evm.Log{
		Address:     decVault,
		Topics:      []common.Hash{topicTransfer, addressTopic(common.Address{}), addressTopic(decAlice)},
		Data:        hexutil.Bytes(uintWord(big.NewInt(value))),
		BlockNumber: hexutil.Uint64(block),
		TxHash:      common.Hash{byte(block), byte(index)},
		Index:       hexutil.Uint(index),
	}
}

func vaultCreatedLog(block uint64, index uint) evm.Log {
	return evm.Log{
		Address:     decFactory,
		Topics:      []common.Hash{topicVaultCreated, addressTopic(decAlice), addressTopic(decBob)},
		Data:        packWords(boolWord(true), boolWord(true), addressWord(decVault)),
		BlockNumber: hexutil.Uint64(block),
		TxHash:      common.Hash{0xFA, byte(block)},
		Index:       hexutil.Uint(index),
	}
}

func newTestRunner(sink *fakeSink, stream *fakeStream, vaults ...common.Address) *Runner {
	return NewRunner(RunnerOptions{
		Stream:   stream,
		Chain:    fakeChainSource{},
		Sink:     sink,
		Factory:  decFactory,
		Vaults:   vaults,
		BlockLag: 2,
	})
}

func transferValues(t *testing.T, events []domain.Event) []int64 {
	t.Helper()

	values := make([]int64, 0, len(events))
	for _, ev := range events {
		tr, ok := ev.(domain.TransferEvent)
		if !ok {
			t.Fatalf("expected TransferEvent, got %T", ev)
		}
		values = append(values, tr.Value.IntPart())
	}
	return values
}

func TestRunner_BlockOrdering(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(sink, newFakeStream(), decVault)
	ctx := context.Background()

	// Out-of-order delivery: block 3 after block 5's second log.
	feed := []evm.Log{
		transferLog(5, 1, 51),
		transferLog(3, 0, 30),
		transferLog(5, 0, 50),
		transferLog(7, 0, 70),
	}
	for _, log := range feed {
		if err := r.bufferLog(ctx, log); err != nil {
			t.Fatalf("bufferLog: %v", err)
		}
	}

	// Block 7 is inside the lag window and must still be buffered.
	got := transferValues(t, sink.events)
	want := []int64{30, 50, 51}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processing order mismatch: got %v, want %v", got, want)
		}
	}

	// A later block pushes it past the lag.
	if err := r.bufferLog(ctx, transferLog(9, 0, 90)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	got = transferValues(t, sink.events)
	if len(got) != 4 || got[3] != 70 {
		t.Fatalf("expected block 7 flushed, got %v", got)
	}
}

func TestRunner_UnwatchedAddressDropped(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(sink, newFakeStream(), decVault)
	ctx := context.Background()

	stray := transferLog(3, 0, 30)
	stray.Address = common.HexToAddress("0x00000000000000000000000000000000000000CC")

	if err := r.bufferLog(ctx, stray); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	if err := r.bufferLog(ctx, transferLog(10, 0, 100)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}

	if len(sink.events) != 0 {
		t.Errorf("expected stray log dropped, got %d events", len(sink.events))
	}
}

func TestRunner_RemovedLogDropped(t *testing.T) {
	sink := &fakeSink{}
	r := newTestRunner(sink, newFakeStream(), decVault)
	ctx := context.Background()

	removed := transferLog(3, 0, 30)
	removed.Removed = true

	if err := r.bufferLog(ctx, removed); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	if err := r.bufferLog(ctx, transferLog(10, 0, 100)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}

	if len(sink.events) != 0 {
		t.Errorf("expected removed log dropped, got %d events", len(sink.events))
	}
}

func TestRunner_VaultCreatedWidensSubscription(t *testing.T) {
	sink := &fakeSink{}
	stream := newFakeStream()
	// No seeded vaults: only the factory is watched at start.
	r := newTestRunner(sink, stream)
	ctx := context.Background()

	if err := r.bufferLog(ctx, vaultCreatedLog(1, 0)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	// Vault log arrives before the creation event has settled; both flush
	// once a later block passes the lag window.
	if err := r.bufferLog(ctx, transferLog(2, 0, 20)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	if err := r.bufferLog(ctx, transferLog(10, 0, 100)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected creation + transfer applied, got %d events", len(sink.events))
	}
	if _, ok := sink.events[0].(domain.VaultCreatedEvent); !ok {
		t.Errorf("expected VaultCreatedEvent first, got %T", sink.events[0])
	}
	if len(stream.added) != 1 || stream.added[0] != decVault {
		t.Errorf("expected subscription widened to %s, got %v", decVault.Hex(), stream.added)
	}
}

func TestRunner_ApplyErrorStops(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	r := newTestRunner(sink, newFakeStream(), decVault)
	ctx := context.Background()

	if err := r.bufferLog(ctx, transferLog(3, 0, 30)); err != nil {
		t.Fatalf("bufferLog: %v", err)
	}
	err := r.bufferLog(ctx, transferLog(10, 0, 100))
	if err == nil {
		t.Fatal("expected apply failure to propagate")
	}
}

func TestRunner_RunFlushesOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	stream := newFakeStream()
	r := newTestRunner(sink, stream, decVault)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	stream.ch <- transferLog(3, 0, 30)
	stream.ch <- transferLog(4, 0, 40)

	// Both logs sit inside the lag window until shutdown flushes them.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	got := transferValues(t, sink.events)
	if len(got) != 2 || got[0] != 30 || got[1] != 40 {
		t.Errorf("expected shutdown flush of both logs, got %v", got)
	}
	if len(stream.subscribed) != 1 {
		t.Errorf("expected one subscription, got %d", len(stream.subscribed))
	}
}
