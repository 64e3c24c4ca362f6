// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpCreateWallet, time.Now(), nil)

	require.Equal(t, 1, testutil.CollectAndCount(OperationsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		OperationsTotal.WithLabelValues(OpCreateWallet, StatusSuccess)))

	// The duration histogram is observed alongside the counter.
	require.Equal(t, 1, testutil.CollectAndCount(OperationDuration))

	RecordOperation(OpCreateWallet, time.Now(), errors.New("boom"))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		OperationsTotal.WithLabelValues(OpCreateWallet, StatusError)))
}
