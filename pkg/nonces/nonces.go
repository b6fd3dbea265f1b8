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

package nonces

import (
	"context"
	"errors"
	"math/big"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// NonceMethod is the view method every account exposes, returning its current nonce
var NonceMethod = ledger.NewNonVoidMethodSignature("ledger.ExternallyOwnedAccount", "nonce", ledger.TypeBigInteger)

// DefaultViewGasLimit is enough gas for reading the nonce of any account
const DefaultViewGasLimit = 100_000

const DefaultClassTagCacheSize = 1000

// Coordinator hands out the nonces of accounts.
//
// The first request for an account reads its nonce from the node. Every later
// request returns the previous nonce plus one, without going back to the node,
// so that several requests can be built back-to-back before any of them has
// been recorded. Nothing is rolled back when a request is rejected: Forget
// must be called to resynchronize with the ledger.
type Coordinator struct {
	node         ledger.Node
	metrics      metrics.Metrics
	viewGasLimit *fftypes.FFBigInt
	classTags    *lru.Cache[ledger.StorageReference, *ledger.ClassTag]

	mux          sync.Mutex
	lockedNonces map[ledger.StorageReference]*lockedNonce
	lastNonces   map[ledger.StorageReference]*big.Int
}

type Options struct {
	ViewGasLimit      *big.Int
	ClassTagCacheSize int
}

func NewCoordinator(ctx context.Context, node ledger.Node, mm metrics.Metrics, opts *Options) (*Coordinator, error) {
	cacheSize := opts.ClassTagCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultClassTagCacheSize
	}
	viewGasLimit := opts.ViewGasLimit
	if viewGasLimit == nil {
		viewGasLimit = big.NewInt(DefaultViewGasLimit)
	}
	classTags, err := lru.New[ledger.StorageReference, *ledger.ClassTag](cacheSize)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, thmsgs.MsgInvalidCacheSize, cacheSize, "nonces.classTagCacheSize")
	}
	return &Coordinator{
		node:         node,
		metrics:      mm,
		viewGasLimit: (*fftypes.FFBigInt)(viewGasLimit),
		classTags:    classTags,
		lockedNonces: make(map[ledger.StorageReference]*lockedNonce),
		lastNonces:   make(map[ledger.StorageReference]*big.Int),
	}, nil
}

type lockedNonce struct {
	c        *Coordinator
	account  ledger.StorageReference
	unlocked chan struct{}
	nonce    *big.Int
}

// complete must be called for any lockedNonce returned from a successful assignAndLockNonce call
func (ln *lockedNonce) complete(ctx context.Context) {
	log.L(ctx).Debugf("Nonce %s for account %s spent", ln.nonce, ln.account)
	ln.c.mux.Lock()
	ln.c.lastNonces[ln.account] = ln.nonce
	delete(ln.c.lockedNonces, ln.account)
	close(ln.unlocked)
	ln.c.mux.Unlock()
}

// NonceFor allocates the next nonce of the account.
// Distinct accounts never wait for each other, other than on the map lock.
func (c *Coordinator) NonceFor(ctx context.Context, account ledger.StorageReference) (*big.Int, error) {
	locked, err := c.assignAndLockNonce(ctx, account)
	if err != nil {
		return nil, err
	}
	defer locked.complete(ctx)
	c.metrics.CountNonceAllocation(ctx)
	return new(big.Int).Set(locked.nonce), nil
}

func (c *Coordinator) assignAndLockNonce(ctx context.Context, account ledger.StorageReference) (*lockedNonce, error) {

	for {
		// Take the lock to query our nonce cache, and check if we are already locked
		c.mux.Lock()
		doLookup := false
		locked, isLocked := c.lockedNonces[account]
		if !isLocked {
			locked = &lockedNonce{
				c:        c,
				account:  account,
				unlocked: make(chan struct{}),
			}
			c.lockedNonces[account] = locked
			lastNonce, nonceCached := c.lastNonces[account]
			if nonceCached {
				locked.nonce = new(big.Int).Add(lastNonce, big.NewInt(1))
				log.L(ctx).Debugf("Locking next nonce %s from cache for account %s", locked.nonce, account)
				c.mux.Unlock()
				return locked, nil
			}
			// Otherwise, defer a lookup to outside of the mutex
			doLookup = true
		}
		c.mux.Unlock()

		if isLocked {
			log.L(ctx).Debugf("Contention for next nonce for account %s", account)
			select {
			case <-locked.unlocked:
			case <-ctx.Done():
				return nil, i18n.NewError(ctx, thmsgs.MsgNonceQueryFailed, account, ctx.Err())
			}
		} else if doLookup {
			// We have to ensure we either successfully return a nonce,
			// or otherwise we unlock when we return the error
			nonce, err := c.queryNonce(ctx, account)
			if err != nil {
				c.mux.Lock()
				delete(c.lockedNonces, account)
				close(locked.unlocked)
				c.mux.Unlock()
				return nil, err
			}
			locked.nonce = nonce
			return locked, nil
		}
	}

}

// queryNonce reads the nonce of the account from the node, with a view call
// on the account itself, against the jar of its class
func (c *Coordinator) queryNonce(ctx context.Context, account ledger.StorageReference) (*big.Int, error) {
	c.metrics.CountNonceQuery(ctx)
	tag, err := c.classTag(ctx, account)
	if err != nil {
		return nil, unavailable(ctx, account, err)
	}
	receiver := account
	res, _, err := c.node.RunViewTransaction(ctx, &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceViewCall,
		Caller:    account,
		GasLimit:  c.viewGasLimit,
		Classpath: tag.Jar,
		Method:    NonceMethod,
		Receiver:  &receiver,
	})
	if err != nil {
		return nil, unavailable(ctx, account, err)
	}
	if res.Status != ledger.TransactionStatusSucceeded || res.Result == nil {
		return nil, unavailable(ctx, account, &ledger.FailedError{Reference: res.Reference, Cause: res.Cause, Message: res.Message})
	}
	nonce, err := res.Result.AsBigInt(ctx)
	if err != nil {
		return nil, unavailable(ctx, account, err)
	}
	log.L(ctx).Debugf("Nonce of account %s on the ledger is %s", account, nonce)
	return nonce, nil
}

func (c *Coordinator) classTag(ctx context.Context, account ledger.StorageReference) (*ledger.ClassTag, error) {
	if tag, ok := c.classTags.Get(account); ok {
		return tag, nil
	}
	tag, _, err := c.node.GetClassTag(ctx, account)
	if err != nil {
		return nil, err
	}
	c.classTags.Add(account, tag)
	return tag, nil
}

// Forget drops what is known about the nonce of the account, so that the next
// request for it reads the nonce from the node again
func (c *Coordinator) Forget(ctx context.Context, account ledger.StorageReference) {
	c.mux.Lock()
	defer c.mux.Unlock()
	log.L(ctx).Debugf("Forgetting nonce of account %s", account)
	delete(c.lastNonces, account)
}

// Peek returns the last nonce allocated to the account, without allocating a new one
func (c *Coordinator) Peek(account ledger.StorageReference) (*big.Int, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	n, ok := c.lastNonces[account]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(n), true
}

func unavailable(ctx context.Context, account ledger.StorageReference, err error) error {
	var rejected *ledger.RejectedError
	if errors.As(err, &rejected) {
		return rejected
	}
	return ledger.NewRejectedError(ledger.CauseNonceUnavailable, "%s", i18n.NewError(ctx, thmsgs.MsgNonceQueryFailed, account, err))
}

// QueryNonce reads the current nonce of the account from the node, bypassing and not updating the cache
func (c *Coordinator) QueryNonce(ctx context.Context, account ledger.StorageReference) (*big.Int, error) {
	return c.queryNonce(ctx, account)
}
