// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/bridge"
)

type metrics struct {
	enterCount  *prometheus.CounterVec
	exitCount   *prometheus.CounterVec
	failedCount *prometheus.CounterVec
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		enterCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_enter_total",
				Help: "Number of successful enters",
			},
			[]string{"target_chain_id", "policy"},
		),
		exitCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_exit_total",
				Help: "Number of successful exits",
			},
			[]string{"source_chain_id", "policy"},
		),
		failedCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_failed_total",
				Help: "Number of rejected enters and exits",
			},
			[]string{"op", "reason"},
		),
	}

	for _, c := range []prometheus.Collector{m.enterCount, m.exitCount, m.failedCount} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) entered(targetChainID uint64, policy bridge.Policy) {
	m.enterCount.WithLabelValues(strconv.FormatUint(targetChainID, 10), policy.String()).Inc()
}

func (m *metrics) exited(sourceChainID uint64, policy bridge.Policy) {
	m.exitCount.WithLabelValues(strconv.FormatUint(sourceChainID, 10), policy.String()).Inc()
}

func (m *metrics) failed(op string, err error) {
	m.failedCount.WithLabelValues(op, bridge.Reason(err)).Inc()
}
