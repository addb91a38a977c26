package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"veriscan/internal/model"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

// NodeConfig tunes the embedded ledger node.
type NodeConfig struct {
	// BlockTime delays each block, simulating confirmation latency.
	BlockTime time.Duration
	// QueueSize bounds the number of transactions awaiting a block.
	QueueSize int
}

// Node is an embedded single-writer ledger. Transactions are applied in
// submission order by one worker goroutine, one block per transaction.
type Node struct {
	store    StateStore
	contract *RegistryContract
	cfg      NodeConfig
	logger   zerolog.Logger
	now      func() time.Time

	queue   chan *pendingTx
	nonce   atomic.Uint64
	mu      sync.RWMutex
	closed  bool
	stop    chan struct{}
	stopped chan struct{}
}

// NewNode starts a node over store. Call Close to stop the worker.
func NewNode(store StateStore, contract *RegistryContract, cfg NodeConfig, logger zerolog.Logger) *Node {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	n := &Node{
		store:    store,
		contract: contract,
		cfg:      cfg,
		logger:   logger.With().Str("component", "ledger_node").Logger(),
		now:      time.Now,
		queue:    make(chan *pendingTx, cfg.QueueSize),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go n.run()
	return n
}

// Submit queues tx for the next block.
func (n *Node) Submit(ctx context.Context, tx Transaction) (Pending, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return nil, ErrUnavailable
	}

	p := &pendingTx{
		tx:   tx,
		hash: txHash(tx, n.nonce.Add(1)),
		done: make(chan struct{}),
	}

	select {
	case n.queue <- p:
		n.logger.Debug().
			Str("tx_hash", p.hash).
			Str("method", tx.Method).
			Str("from", tx.From.String()).
			Msg("transaction queued")
		return p, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}

// Query runs a contract view against the latest committed block.
func (n *Node) Query(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error) {
	select {
	case <-n.stop:
		return nil, ErrUnavailable
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out json.RawMessage
	err := n.store.View(ctx, func(r StateReader) error {
		var err error
		out, err = n.contract.Call(ctx, r, method, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// Close stops the worker. Transactions still queued are failed with ErrUnavailable.
func (n *Node) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.stop)
	n.mu.Unlock()

	<-n.stopped
}

func (n *Node) run() {
	defer close(n.stopped)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-n.stop
		cancel()
	}()

	for {
		select {
		case <-n.stop:
			n.drain()
			return
		case p := <-n.queue:
			n.mine(ctx, p)
		}
	}
}

func (n *Node) mine(ctx context.Context, p *pendingTx) {
	if n.cfg.BlockTime > 0 {
		timer := time.NewTimer(n.cfg.BlockTime)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			p.finish(model.Receipt{}, ErrUnavailable)
			return
		}
	}

	at := n.now().UTC()
	header := BlockHeader{
		TxHash:    p.hash,
		Method:    p.tx.Method,
		Caller:    p.tx.From,
		Timestamp: at,
	}

	number, err := n.store.Apply(ctx, header, func(w StateWriter) error {
		return n.contract.Execute(ctx, w, p.tx, p.hash, at)
	})
	if err != nil {
		var rev *RevertError
		if errors.As(err, &rev) {
			n.logger.Info().
				Str("tx_hash", p.hash).
				Str("method", p.tx.Method).
				Str("code", rev.Code).
				Msg("transaction reverted")
		} else {
			n.logger.Error().Err(err).Str("tx_hash", p.hash).Msg("failed to apply block")
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		p.finish(model.Receipt{}, err)
		return
	}

	n.logger.Debug().
		Str("tx_hash", p.hash).
		Uint64("block", number).
		Msg("transaction confirmed")

	p.finish(model.Receipt{TxHash: p.hash, BlockNumber: number, ConfirmedAt: at}, nil)
}

func (n *Node) drain() {
	for {
		select {
		case p := <-n.queue:
			p.finish(model.Receipt{}, ErrUnavailable)
		default:
			return
		}
	}
}

type pendingTx struct {
	tx      Transaction
	hash    string
	receipt model.Receipt
	err     error
	done    chan struct{}
}

func (p *pendingTx) Hash() string {
	return p.hash
}

func (p *pendingTx) Wait(ctx context.Context) (model.Receipt, error) {
	select {
	case <-p.done:
		return p.receipt, p.err
	case <-ctx.Done():
		return model.Receipt{}, fmt.Errorf("%w: %s: %w", ErrNotConfirmed, p.hash, ctx.Err())
	}
}

func (p *pendingTx) finish(receipt model.Receipt, err error) {
	p.receipt = receipt
	p.err = err
	close(p.done)
}

func txHash(tx Transaction, nonce uint64) string {
	return crypto.Keccak256Hash(
		[]byte(tx.From),
		[]byte(tx.Method),
		tx.Args,
		binary.BigEndian.AppendUint64(nil, nonce),
	).Hex()
}
