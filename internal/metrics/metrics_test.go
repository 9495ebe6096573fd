package metrics_test

import (
	"testing"
	"trust-multisig/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStateKeepsEnginesApart(t *testing.T) {
	metrics.UpdateState("first", 2, 3, 3, 1)
	metrics.UpdateState("second", 4, 6, 5, 0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	quorums := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "multisig_quorum" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "engine" {
					quorums[label.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 2.0, quorums["first"])
	assert.Equal(t, 4.0, quorums["second"])
}
