// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var SubmissionsTotal *prometheus.CounterVec
var NonceQueriesTotal prometheus.Counter
var NonceAllocationsTotal prometheus.Counter
var ResolveAttempts prometheus.Histogram

var MetricsSubmissionsTotal = "ff_harness_submissions_total"
var MetricsNonceQueriesTotal = "ff_harness_nonce_queries_total"
var MetricsNonceAllocationsTotal = "ff_harness_nonce_allocations_total"
var MetricsResolveAttempts = "ff_harness_resolve_attempts"

func InitHarnessMetrics() {
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricsSubmissionsTotal,
		Help: "Number of requests submitted to the node, by submission path and classified outcome",
	}, []string{"path", "outcome"})
	NonceQueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricsNonceQueriesTotal,
		Help: "Number of times the nonce of an account was read from the node",
	})
	NonceAllocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricsNonceAllocationsTotal,
		Help: "Number of nonces allocated to requests",
	})
	ResolveAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricsResolveAttempts,
		Help:    "Number of polls needed to resolve a posted transaction",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
}

func RegisterHarnessMetrics() {
	registry.MustRegister(SubmissionsTotal)
	registry.MustRegister(NonceQueriesTotal)
	registry.MustRegister(NonceAllocationsTotal)
	registry.MustRegister(ResolveAttempts)
}
