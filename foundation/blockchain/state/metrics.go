package state

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlocksCommitted       prometheus.Counter
	prometheusTransactionsSubmitted prometheus.Counter
	prometheusTransactionsRejected  prometheus.Counter
	prometheusTransactionsCommitted prometheus.Counter
	prometheusChainReplaced         prometheus.Counter
	prometheusWalletsCreated        prometheus.Counter
	prometheusEventsCreated         prometheus.Counter
	prometheusMessagesProcessed     *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlocksCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "blocks_committed",
			Help:      "Number of blocks committed by this node",
		},
	)
	prometheusTransactionsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "transactions_submitted",
			Help:      "Number of transactions admitted into the pool",
		},
	)
	prometheusTransactionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "transactions_rejected",
			Help:      "Number of transactions rejected by the pool",
		},
	)
	prometheusTransactionsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "transactions_committed",
			Help:      "Number of transactions committed into blocks",
		},
	)
	prometheusChainReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "chain_replaced",
			Help:      "Number of times the local chain was replaced by a peer chain",
		},
	)
	prometheusWalletsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "wallets_created",
			Help:      "Number of wallets created on this node",
		},
	)
	prometheusEventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "events_created",
			Help:      "Number of events created on this node",
		},
	)
	prometheusMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "messages_processed",
			Help:      "Number of peer messages processed",
		},
		[]string{
			"kind", // kind of the message
		},
	)
}
