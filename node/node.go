package node

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"relaychain/blockchain"
	"relaychain/blockchain/store"
	"relaychain/p2p"
)

const (
	DefaultMiningInterval   = 10 * time.Second
	DefaultStartDelay       = 3 * time.Second
	DefaultIdleMiningChance = 0.3
)

// Transport delivers a message to every other peer.
type Transport interface {
	Send(msg p2p.Message) error
}

// Config holds all configuration for a node.
type Config struct {
	// ID names the node in logs and metrics.
	ID string

	// Wallet signs outgoing transactions and receives mining rewards.
	Wallet *blockchain.Wallet

	Difficulty       int
	MiningReward     float64
	StrictSignatures bool

	// Store persists the chain. Defaults to an in-memory store.
	Store store.ChainStore

	// RelayURL is the websocket address of the relay. It is used when
	// Transport is nil.
	RelayURL       string
	ReconnectDelay time.Duration

	// Transport overrides the relay client. Inbound messages must then be
	// delivered with p2p.Dispatch.
	Transport Transport

	// MiningInterval is how often the node considers mining a block.
	MiningInterval time.Duration

	// MiningTicker overrides the ticker built from MiningInterval.
	MiningTicker ticker.Ticker

	// IdleMiningChance is the probability of mining an empty block on a
	// tick when no transactions are pending.
	IdleMiningChance float64

	// StartDelay postpones the first mining tick after Run.
	StartDelay time.Duration

	// DisableMining turns the node into a validating peer only.
	DisableMining bool

	Clock    clock.Clock
	Registry *prometheus.Registry
	Logger   *logrus.Entry
}

// Node is a network participant. It owns a ledger, answers peer messages
// against it, mines new blocks and broadcasts the results.
type Node struct {
	cfg       Config
	log       *logrus.Entry
	wallet    *blockchain.Wallet
	ledger    *blockchain.Ledger
	store     store.ChainStore
	client    *p2p.Client
	transport Transport
	ticker    ticker.Ticker
	clock     clock.Clock
	registry  *prometheus.Registry
	metrics   *metrics
	rand      func() float64

	// mineMu guards cancelMining, the cancel func of the attempt in
	// progress.
	mineMu       sync.Mutex
	cancelMining context.CancelFunc

	// persistMu orders chain snapshots written to the store.
	persistMu sync.Mutex
}

// New creates a node and restores its chain from the configured store.
func New(cfg Config) (*Node, error) {
	if cfg.Wallet == nil {
		return nil, errors.New("node requires a wallet")
	}
	if cfg.ID == "" {
		cfg.ID = string(cfg.Wallet.Address())[:8]
	}
	if cfg.Difficulty < 0 {
		return nil, fmt.Errorf("invalid difficulty %d", cfg.Difficulty)
	}
	if cfg.MiningReward <= 0 {
		cfg.MiningReward = blockchain.DefaultMiningReward
	}
	if cfg.MiningInterval <= 0 {
		cfg.MiningInterval = DefaultMiningInterval
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryChainStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	n := &Node{
		cfg:      cfg,
		log:      cfg.Logger.WithField("node", cfg.ID),
		wallet:   cfg.Wallet,
		store:    cfg.Store,
		clock:    cfg.Clock,
		registry: cfg.Registry,
		rand:     rand.Float64,
	}
	n.metrics = newMetrics(cfg.Registry, cfg.ID)

	opts := []blockchain.Option{
		blockchain.WithDifficulty(cfg.Difficulty),
		blockchain.WithMiningReward(cfg.MiningReward),
		blockchain.WithClock(cfg.Clock),
		blockchain.WithReplaceListener(func(*blockchain.Block) {
			n.abandonMining()
		}),
	}
	if cfg.StrictSignatures {
		opts = append(opts, blockchain.WithStrictSignatures())
	}
	n.ledger = blockchain.NewLedger(opts...)

	if err := n.restore(); err != nil {
		return nil, err
	}

	n.transport = cfg.Transport
	if n.transport == nil && cfg.RelayURL != "" {
		n.client = p2p.NewClient(p2p.ClientConfig{
			URL:            cfg.RelayURL,
			ReconnectDelay: cfg.ReconnectDelay,
			Handler:        n,
			OnConnect:      n.requestChain,
			Logger:         n.log,
		})
		n.transport = n.client
	}

	n.ticker = cfg.MiningTicker
	if n.ticker == nil {
		n.ticker = ticker.New(cfg.MiningInterval)
	}

	n.updateGauges()
	return n, nil
}

// restore adopts the stored chain when it is longer than genesis and valid.
func (n *Node) restore() error {
	chain, err := n.store.LoadChain()
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	if len(chain) <= 1 {
		return nil
	}

	if err := n.ledger.ReplaceChain(chain); err != nil {
		n.log.Warnf("Ignoring stored chain: %v", err)
		return nil
	}
	n.log.Infof("Restored chain of %d blocks", len(chain))
	return nil
}

// Run connects to the relay and runs the mining loop until ctx is
// cancelled.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if n.client != nil {
		g.Go(func() error {
			return n.client.Run(ctx)
		})
	} else if n.transport != nil {
		// No connection lifecycle to hook, ask for the chain once.
		n.requestChain()
	}

	if !n.cfg.DisableMining {
		g.Go(func() error {
			return n.mineLoop(ctx)
		})
	}

	n.log.Infof("Node started, address %s", n.wallet.Address())
	return g.Wait()
}

// Close releases the chain store.
func (n *Node) Close() error {
	return n.store.Close()
}

func (n *Node) ID() string {
	return n.cfg.ID
}

// Address returns the node's wallet address.
func (n *Node) Address() blockchain.Address {
	return n.wallet.Address()
}

// ConnState reports the relay connection state. Nodes running on an
// injected transport are always Connected.
func (n *Node) ConnState() p2p.ConnState {
	if n.client == nil {
		if n.transport == nil {
			return p2p.Disconnected
		}
		return p2p.Connected
	}
	return n.client.State()
}

// Balance returns the node's own balance.
func (n *Node) Balance() float64 {
	return n.ledger.BalanceOf(n.wallet.Address())
}

func (n *Node) BalanceOf(address blockchain.Address) float64 {
	return n.ledger.BalanceOf(address)
}

func (n *Node) Chain() []*blockchain.Block {
	return n.ledger.Chain()
}

func (n *Node) Latest() *blockchain.Block {
	return n.ledger.Latest()
}

func (n *Node) Pending() []blockchain.Transaction {
	return n.ledger.Pending()
}

func (n *Node) IsChainValid() bool {
	return n.ledger.IsChainValid()
}

// Gatherer exposes the node's metrics registry.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.registry
}

// CreateTransaction signs a transfer from the node's wallet, adds it to the
// local pending pool and broadcasts it. Ledger errors are returned to the
// caller; broadcast failures are only logged since the transaction still
// gets mined locally.
func (n *Node) CreateTransaction(to blockchain.Address, amount float64) (*blockchain.Transaction, error) {
	tx, err := n.wallet.NewSignedTransaction(to, amount)
	if err != nil {
		return nil, err
	}
	if err := n.ledger.AddTransaction(tx); err != nil {
		n.metrics.txRejected.Inc()
		return nil, err
	}
	n.updateGauges()

	n.log.Infof("Created transaction of %v to %s", amount, to)
	n.broadcast(&p2p.NewTransaction{Transaction: tx})
	return tx, nil
}

func (n *Node) requestChain() {
	n.broadcast(&p2p.RequestBlockchain{})
}

func (n *Node) broadcast(msg p2p.Message) {
	if n.transport == nil {
		return
	}

	err := n.transport.Send(msg)
	switch {
	case err == nil:
		n.log.Debugf("Sent %s", msg.Type())
	case errors.Is(err, p2p.ErrNotConnected):
		n.log.Debugf("Not broadcasting %s: %v", msg.Type(), err)
	default:
		n.log.Warnf("Failed to broadcast %s: %v", msg.Type(), err)
	}
}

// persist writes the current chain to the store. Snapshots are taken under
// persistMu so an older chain never overwrites a newer one.
func (n *Node) persist() {
	n.persistMu.Lock()
	defer n.persistMu.Unlock()

	if err := n.store.SaveChain(n.ledger.Chain()); err != nil {
		n.log.Errorf("Failed to save chain: %v", err)
	}
}

func (n *Node) updateGauges() {
	n.metrics.chainHeight.Set(float64(n.ledger.Len()))
	n.metrics.pending.Set(float64(len(n.ledger.Pending())))
}
