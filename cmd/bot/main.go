// Command bot runs a mining node that also sends random transfers to other
// addresses it has seen on the chain, to keep a test network busy.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"relaychain/blockchain"
	"relaychain/config"
	"relaychain/mocks"
	"relaychain/node"
)

const (
	minInterval = 10 * time.Second
	maxInterval = 2 * time.Minute
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadNode(args)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}

	wallet, err := blockchain.NewWallet()
	if err != nil {
		return err
	}

	n, err := node.New(node.Config{
		ID:               cfg.ID,
		Wallet:           wallet,
		Difficulty:       cfg.Difficulty,
		MiningReward:     cfg.MiningReward,
		RelayURL:         cfg.RelayURL,
		ReconnectDelay:   cfg.ReconnectDelay,
		MiningInterval:   cfg.MiningInterval,
		IdleMiningChance: cfg.IdleMiningChance,
		StartDelay:       cfg.StartDelay,
		Logger:           logrus.NewEntry(logger),
	})
	if err != nil {
		return err
	}
	defer n.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(ctx)
	})
	g.Go(func() error {
		return sendPeriodically(ctx, n, logrus.NewEntry(logger).WithField("node", n.ID()))
	})
	return g.Wait()
}

// sendPeriodically waits a random interval between minInterval and
// maxInterval, then sends a random share of the balance to a random
// address from the chain.
func sendPeriodically(ctx context.Context, n *node.Node, log *logrus.Entry) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		wait := minInterval + time.Duration(r.Int63n(int64(maxInterval-minInterval)))
		log.Infof("Next transfer in %v", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		to := mocks.RandomRecipient(r, n.Chain(), n.Address())
		balance := n.Balance()
		if to == "" || balance < 1 {
			log.Info("Nothing to send yet")
			continue
		}

		amount := float64(r.Intn(int(balance)) + 1)
		if _, err := n.CreateTransaction(to, amount); err != nil {
			log.Warnf("Transfer refused: %v", err)
		}
	}
}
