// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package metrics defines Prometheus metrics for the custody subsystem:
// operation counters, signature collection progress and transaction
// lifecycle outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all custody metrics.
	Namespace = "custody"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelOutcome   = "outcome"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpCreateWallet    = "create_wallet"
	OpRevokeWallet    = "revoke_wallet"
	OpProposeTx       = "propose_transaction"
	OpSubmitSignature = "submit_signature"
	OpExecuteTx       = "execute_transaction"
	OpRejectTx        = "reject_transaction"
	OpSweepExpired    = "sweep_expired"
	OpExportAudit     = "export_audit_log"
)

var (
	// OperationsTotal counts custody operations by name and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total custody operations by operation and status.",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration observes custody operation latency in seconds.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Custody operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelOperation},
	)

	// SignaturesCollected counts accepted partial signatures.
	SignaturesCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "signatures_collected_total",
			Help:      "Total partial signatures accepted across all transactions.",
		},
	)

	// TransactionsFinalized counts transactions entering a terminal
	// state, by outcome (executed, expired, rejected).
	TransactionsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transactions_finalized_total",
			Help:      "Total transactions reaching a terminal state, by outcome.",
		},
		[]string{LabelOutcome},
	)

	// WalletsActive tracks the number of wallets currently active.
	WalletsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "wallets_active",
			Help:      "Number of custody wallets currently in active status.",
		},
	)
)

// RecordOperation increments the operation counter with the status derived
// from err and observes the elapsed time since started.
func RecordOperation(operation string, started time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
