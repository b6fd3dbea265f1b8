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

package cluster

import (
	"context"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/remote"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// Node is a ledger.Node over the members of a consensus cluster.
//
// Every call goes to the current leader. A call that fails in the transport,
// with no reason, moves the leadership to the next member in order and is
// retried there. Errors the ledger gave a reason for are returned as they are.
type Node struct {
	members []ledger.Node
	mux     sync.Mutex
	leader  int
}

// New builds a member per URL of node.cluster.urls, sharing the HTTP settings of node.cluster
func New(ctx context.Context) (*Node, error) {
	urls := config.GetStringSlice(thconfig.NodeClusterURLs)
	members := make([]ledger.Node, 0, len(urls))
	for _, url := range urls {
		m, err := remote.NewWithURL(ctx, thconfig.NodeClusterConfig, url)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return NewWithMembers(ctx, members...)
}

func NewWithMembers(ctx context.Context, members ...ledger.Node) (*Node, error) {
	if len(members) == 0 {
		return nil, i18n.NewError(ctx, thmsgs.MsgClusterNoMembers)
	}
	return &Node{members: members}, nil
}

func (c *Node) currentLeader() (int, ledger.Node) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.leader, c.members[c.leader]
}

// failover moves the leadership past a member that failed, unless another
// call has moved it already
func (c *Node) failover(ctx context.Context, failed int) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.leader == failed {
		c.leader = (failed + 1) % len(c.members)
		log.L(ctx).Warnf("Cluster leadership moved from member %d to member %d", failed, c.leader)
	}
}

func invoke[T any](ctx context.Context, c *Node, op string, fn func(m ledger.Node) (T, ledger.ErrorReason, error)) (T, ledger.ErrorReason, error) {
	var lastErr error
	for attempt := 0; attempt < len(c.members); attempt++ {
		idx, m := c.currentLeader()
		res, reason, err := fn(m)
		if err == nil || reason != "" {
			return res, reason, err
		}
		lastErr = err
		if ctx.Err() != nil {
			return res, reason, err
		}
		log.L(ctx).Warnf("%s failed on cluster member %d: %s", op, idx, err)
		c.failover(ctx, idx)
	}
	var empty T
	return empty, "", i18n.WrapError(ctx, lastErr, thmsgs.MsgClusterAllMembersFailed, len(c.members), lastErr)
}

func (c *Node) GetManifest(ctx context.Context) (*ledger.StorageReference, ledger.ErrorReason, error) {
	return invoke(ctx, c, "GetManifest", func(m ledger.Node) (*ledger.StorageReference, ledger.ErrorReason, error) {
		return m.GetManifest(ctx)
	})
}

func (c *Node) GetTakamakaCode(ctx context.Context) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	return invoke(ctx, c, "GetTakamakaCode", func(m ledger.Node) (*ledger.TransactionReference, ledger.ErrorReason, error) {
		return m.GetTakamakaCode(ctx)
	})
}

func (c *Node) GetClassTag(ctx context.Context, ref ledger.StorageReference) (*ledger.ClassTag, ledger.ErrorReason, error) {
	return invoke(ctx, c, "GetClassTag", func(m ledger.Node) (*ledger.ClassTag, ledger.ErrorReason, error) {
		return m.GetClassTag(ctx, ref)
	})
}

func (c *Node) AddTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	return invoke(ctx, c, "AddTransaction", func(m ledger.Node) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
		return m.AddTransaction(ctx, req)
	})
}

func (c *Node) PostTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	return invoke(ctx, c, "PostTransaction", func(m ledger.Node) (*ledger.TransactionReference, ledger.ErrorReason, error) {
		return m.PostTransaction(ctx, req)
	})
}

func (c *Node) GetRequest(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionRequest, ledger.ErrorReason, error) {
	return invoke(ctx, c, "GetRequest", func(m ledger.Node) (*ledger.TransactionRequest, ledger.ErrorReason, error) {
		return m.GetRequest(ctx, ref)
	})
}

func (c *Node) GetResponse(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	return invoke(ctx, c, "GetResponse", func(m ledger.Node) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
		return m.GetResponse(ctx, ref)
	})
}

func (c *Node) RunViewTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	return invoke(ctx, c, "RunViewTransaction", func(m ledger.Node) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
		return m.RunViewTransaction(ctx, req)
	})
}

func (c *Node) Close(ctx context.Context) {
	for _, m := range c.members {
		m.Close(ctx)
	}
}
