package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"relaychain/api"
	"relaychain/blockchain"
	"relaychain/blockchain/store"
	"relaychain/config"
	"relaychain/node"
	"relaychain/shell"
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
	log := logrus.NewEntry(logger)

	wallet, err := openWallet(cfg.KeyFile)
	if err != nil {
		return err
	}

	chainStore, err := openStore(cfg.ChainDir())
	if err != nil {
		return err
	}

	n, err := node.New(node.Config{
		ID:               cfg.ID,
		Wallet:           wallet,
		Difficulty:       cfg.Difficulty,
		MiningReward:     cfg.MiningReward,
		StrictSignatures: cfg.StrictSignatures,
		Store:            chainStore,
		RelayURL:         cfg.RelayURL,
		ReconnectDelay:   cfg.ReconnectDelay,
		MiningInterval:   cfg.MiningInterval,
		IdleMiningChance: cfg.IdleMiningChance,
		StartDelay:       cfg.StartDelay,
		DisableMining:    cfg.NoMining,
		Logger:           log,
	})
	if err != nil {
		chainStore.Close()
		return err
	}
	defer n.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(ctx)
	})

	if cfg.APIListen != "" {
		srv := api.NewServer(n, n.Gatherer(), log)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.APIListen)
		})
	}

	// The shell blocks on stdin, so it stays outside the group and stops
	// the node when it returns.
	if !cfg.NoShell {
		go func() {
			if err := shell.New(n, os.Stdin, os.Stdout).Run(); err != nil {
				log.Errorf("Shell failed: %v", err)
			}
			stop()
		}()
	}

	return g.Wait()
}

// openWallet loads the key at path, or generates a throwaway wallet when
// no path is configured.
func openWallet(path string) (*blockchain.Wallet, error) {
	if path == "" {
		return blockchain.NewWallet()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return blockchain.LoadOrCreateWallet(path)
}

func openStore(dir string) (store.ChainStore, error) {
	if dir == "" {
		return store.NewMemoryChainStore(), nil
	}
	return store.OpenLevelDBChainStore(dir)
}
