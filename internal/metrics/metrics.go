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
	"context"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
)

type metricsManager struct {
	ctx            context.Context
	metricsEnabled bool
}

func NewMetricsManager(ctx context.Context) Metrics {
	mm := &metricsManager{
		ctx:            ctx,
		metricsEnabled: config.GetBool(thconfig.MetricsEnabled),
	}
	if mm.metricsEnabled {
		// make sure the collectors exist before the first observation
		Registry()
	}
	return mm
}

type Metrics interface {
	IsMetricsEnabled() bool

	// CountSubmission records the classified outcome of a request, by the path it was submitted on
	CountSubmission(ctx context.Context, path string, outcome string)
	CountNonceQuery(ctx context.Context)
	CountNonceAllocation(ctx context.Context)
	ObserveResolveAttempts(ctx context.Context, attempts int)
}

func (mm *metricsManager) IsMetricsEnabled() bool {
	return mm.metricsEnabled
}

func (mm *metricsManager) CountSubmission(ctx context.Context, path string, outcome string) {
	if mm.metricsEnabled {
		log.L(ctx).Tracef("Submission path=%s outcome=%s", path, outcome)
		SubmissionsTotal.WithLabelValues(path, outcome).Inc()
	}
}

func (mm *metricsManager) CountNonceQuery(_ context.Context) {
	if mm.metricsEnabled {
		NonceQueriesTotal.Inc()
	}
}

func (mm *metricsManager) CountNonceAllocation(_ context.Context) {
	if mm.metricsEnabled {
		NonceAllocationsTotal.Inc()
	}
}

func (mm *metricsManager) ObserveResolveAttempts(_ context.Context, attempts int) {
	if mm.metricsEnabled {
		ResolveAttempts.Observe(float64(attempts))
	}
}
