package node

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	blocksMined       prometheus.Counter
	blocksAccepted    prometheus.Counter
	chainReplacements prometheus.Counter
	txRejected        prometheus.Counter
	miningAbandoned   prometheus.Counter
	chainHeight       prometheus.Gauge
	pending           prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, nodeID string) *metrics {
	labels := prometheus.Labels{"node": nodeID}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "relaychain",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "relaychain",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &metrics{
		blocksMined:       counter("blocks_mined_total", "Blocks mined by this node."),
		blocksAccepted:    counter("blocks_accepted_total", "Blocks received from peers and appended."),
		chainReplacements: counter("chain_replacements_total", "Times a longer peer chain was adopted."),
		txRejected:        counter("transactions_rejected_total", "Transactions refused by the ledger."),
		miningAbandoned:   counter("mining_abandoned_total", "Mining attempts superseded by a peer block or chain."),
		chainHeight:       gauge("chain_height", "Number of blocks in the local chain, genesis included."),
		pending:           gauge("pending_transactions", "Transactions waiting to be mined."),
	}

	reg.MustRegister(
		m.blocksMined,
		m.blocksAccepted,
		m.chainReplacements,
		m.txRejected,
		m.miningAbandoned,
		m.chainHeight,
		m.pending,
	)
	return m
}
