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

package environment

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/hyperledger/firefly-txharness/internal/cluster"
	"github.com/hyperledger/firefly-txharness/internal/journal"
	"github.com/hyperledger/firefly-txharness/internal/memnode"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/remote"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/bootstrap"
	"github.com/hyperledger/firefly-txharness/pkg/execution"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/hyperledger/firefly-txharness/pkg/nonces"
	"github.com/hyperledger/firefly-txharness/pkg/requests"
)

// NodeBackend is the kind of node an environment submits to
type NodeBackend string

const (
	NodeBackendMemory  NodeBackend = "memory"
	NodeBackendRemote  NodeBackend = "remote"
	NodeBackendCluster NodeBackend = "cluster"
)

func (b NodeBackend) validate(ctx context.Context) error {
	switch b {
	case NodeBackendMemory, NodeBackendRemote, NodeBackendCluster:
		return nil
	default:
		return i18n.NewError(ctx, thmsgs.MsgInvalidNodeBackend, b)
	}
}

const (
	manifestClass = "ledger.Manifest"
	gameteClass   = "ledger.Gamete"
	accountClass  = "ledger.ExternallyOwnedAccount"
)

// Environment is the state shared by every fixture of a test run: the node,
// the nonces of its accounts, and the gamete everything is funded from.
// It is built once from configuration, and passed to whatever needs it.
type Environment struct {
	backend      NodeBackend
	node         ledger.Node
	metrics      metrics.Metrics
	journal      journal.Journal
	nonces       *nonces.Coordinator
	factory      *requests.Factory
	model        *execution.Model
	bootstrap    *bootstrap.Bootstrap
	manifest     ledger.StorageReference
	takamakaCode ledger.TransactionReference
	chainID      string
	gamete       *keys.KeyedAccount
	localGamete  *keys.KeyedAccount
	viewGasLimit *big.Int

	mux    sync.Mutex
	closed bool
}

// New resolves the configured node backend, and discovers the well-known
// references of the ledger, before funding the local gamete of this environment
func New(ctx context.Context) (*Environment, error) {
	env := &Environment{
		backend: NodeBackend(config.GetString(thconfig.NodeBackend)),
		metrics: metrics.NewMetricsManager(ctx),
	}
	ctx = log.WithLogField(ctx, "backend", string(env.backend))
	if err := env.init(ctx); err != nil {
		env.Close(ctx)
		return nil, err
	}
	log.L(ctx).Infof("Environment ready on chain '%s' with local gamete %s", env.chainID, env.localGamete)
	return env, nil
}

func (env *Environment) init(ctx context.Context) (err error) {
	if err := env.backend.validate(ctx); err != nil {
		return err
	}
	gameteKey, err := GameteKey(ctx, env.backend)
	if err != nil {
		return err
	}
	if env.node, err = newNode(ctx, env.backend, gameteKey); err != nil {
		return err
	}
	if env.journal, err = journal.New(ctx); err != nil {
		return err
	}
	if err := env.initModel(ctx); err != nil {
		return err
	}
	if err := env.discover(ctx, gameteKey); err != nil {
		return err
	}
	return env.fundLocalGamete(ctx)
}

// GameteKey is derived from a fixed seed for an in-memory node, which creates
// its gamete for that key. Any other node already has a gamete, so its key
// must be configured.
func GameteKey(ctx context.Context, backend NodeBackend) (*secp256k1.KeyPair, error) {
	if pk := config.GetString(thconfig.GametePrivateKey); pk != "" {
		return keys.ParsePrivateKey(ctx, pk)
	}
	if backend != NodeBackendMemory {
		return nil, i18n.NewError(ctx, thmsgs.MsgGameteNotConfigured, backend)
	}
	return keys.DeriveKey([]byte(config.GetString(thconfig.GameteSeed)), 0), nil
}

// NewNode resolves the configured node backend, without discovering or funding anything on it
func NewNode(ctx context.Context) (ledger.Node, error) {
	backend := NodeBackend(config.GetString(thconfig.NodeBackend))
	if err := backend.validate(ctx); err != nil {
		return nil, err
	}
	gameteKey, err := GameteKey(ctx, backend)
	if err != nil {
		return nil, err
	}
	return newNode(ctx, backend, gameteKey)
}

// newNode never returns a typed nil, so a failed node is never closed
func newNode(ctx context.Context, backend NodeBackend, gameteKey *secp256k1.KeyPair) (ledger.Node, error) {
	switch backend {
	case NodeBackendMemory:
		n, err := memnode.NewFromConfig(ctx, keys.Identity(gameteKey))
		if err != nil {
			return nil, err
		}
		return n, nil
	case NodeBackendRemote:
		n, err := remote.New(ctx, thconfig.NodeRemoteConfig)
		if err != nil {
			return nil, err
		}
		return n, nil
	case NodeBackendCluster:
		n, err := cluster.New(ctx)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidNodeBackend, backend)
	}
}

func (env *Environment) initModel(ctx context.Context) (err error) {
	if env.viewGasLimit, err = thconfig.GetBigInt(ctx, thconfig.NoncesViewGasLimit); err != nil {
		return err
	}
	env.nonces, err = nonces.NewCoordinator(ctx, env.node, env.metrics, &nonces.Options{
		ViewGasLimit:      env.viewGasLimit,
		ClassTagCacheSize: config.GetInt(thconfig.NoncesClassTagCacheSize),
	})
	if err != nil {
		return err
	}
	env.model = execution.NewModel(env.node, env.metrics, &execution.Options{
		MaxAttempts: config.GetInt(thconfig.PollingMaxAttempts),
		PollDelay:   config.GetDuration(thconfig.PollingDelay),
		Journal:     env.journal,
	})
	return nil
}

func (env *Environment) discover(ctx context.Context, gameteKey *secp256k1.KeyPair) error {
	manifest, _, err := env.node.GetManifest(ctx)
	if err != nil {
		return err
	}
	env.manifest = *manifest
	takamakaCode, _, err := env.node.GetTakamakaCode(ctx)
	if err != nil {
		return err
	}
	env.takamakaCode = *takamakaCode

	// the factory is not needed yet, as views carry no chain id
	views := requests.NewFactory(env.nonces, "")
	v, err := env.model.RunNonVoid(ctx, views.InstanceViewCall(env.manifest, env.viewGasLimit, env.takamakaCode,
		ledger.NewNonVoidMethodSignature(manifestClass, "getGamete", gameteClass), env.manifest))
	if err != nil {
		return err
	}
	gamete, err := v.AsReference(ctx)
	if err != nil {
		return err
	}
	v, err = env.model.RunNonVoid(ctx, views.InstanceViewCall(env.manifest, env.viewGasLimit, env.takamakaCode,
		ledger.NewNonVoidMethodSignature(manifestClass, "getChainId", ledger.TypeString), env.manifest))
	if err != nil {
		return err
	}
	if env.chainID, err = v.AsString(ctx); err != nil {
		return err
	}

	v, err = env.model.RunNonVoid(ctx, views.InstanceViewCall(gamete, env.viewGasLimit, env.takamakaCode,
		ledger.NewNonVoidMethodSignature(accountClass, "publicKey", ledger.TypeString), gamete))
	if err != nil {
		return err
	}
	publicKey, err := v.AsString(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(publicKey, keys.Identity(gameteKey)) {
		return i18n.NewError(ctx, thmsgs.MsgGameteKeyMismatch, keys.Identity(gameteKey), gamete)
	}
	env.gamete = keys.NewKeyedAccount(gamete, gameteKey)
	env.factory = requests.NewFactory(env.nonces, env.chainID)
	return nil
}

func (env *Environment) fundLocalGamete(ctx context.Context) error {
	green, err := thconfig.GetBigInt(ctx, thconfig.EnvironmentLocalGameteFunds)
	if err != nil {
		return err
	}
	red, err := thconfig.GetBigInt(ctx, thconfig.EnvironmentLocalGameteRedFunds)
	if err != nil {
		return err
	}
	gasPerAccount, err := thconfig.GetBigInt(ctx, thconfig.BootstrapGasPerAccount)
	if err != nil {
		return err
	}
	gasPrice, err := thconfig.GetBigInt(ctx, thconfig.BootstrapGasPrice)
	if err != nil {
		return err
	}
	env.bootstrap = bootstrap.NewBootstrap(env.factory, env.model, env.takamakaCode, &bootstrap.Options{
		ContainerClass: config.GetString(thconfig.BootstrapContainerClass),
		GasPerAccount:  gasPerAccount,
		GasPrice:       gasPrice,
		ViewGasLimit:   env.viewGasLimit,
	})
	accounts, err := env.bootstrap.CreateGreenRedAccounts(ctx, env.gamete, bootstrap.GreenRed{Green: green, Red: red})
	if err != nil {
		return err
	}
	env.localGamete = accounts.Get(0)
	return nil
}

func (env *Environment) checkOpen(ctx context.Context) error {
	env.mux.Lock()
	defer env.mux.Unlock()
	if env.closed {
		return i18n.NewError(ctx, thmsgs.MsgEnvironmentClosed)
	}
	return nil
}

// Close releases the node and the journal. Closing twice does nothing.
func (env *Environment) Close(ctx context.Context) {
	env.mux.Lock()
	defer env.mux.Unlock()
	if env.closed {
		return
	}
	env.closed = true
	if env.journal != nil {
		env.journal.Close(ctx)
	}
	if env.node != nil {
		env.node.Close(ctx)
	}
}

func (env *Environment) Backend() NodeBackend {
	return env.backend
}

func (env *Environment) Node() ledger.Node {
	return env.node
}

func (env *Environment) Model() *execution.Model {
	return env.model
}

func (env *Environment) Factory() *requests.Factory {
	return env.factory
}

func (env *Environment) Nonces() *nonces.Coordinator {
	return env.nonces
}

func (env *Environment) Bootstrap() *bootstrap.Bootstrap {
	return env.bootstrap
}

func (env *Environment) Journal() journal.Journal {
	return env.journal
}

func (env *Environment) Manifest() ledger.StorageReference {
	return env.manifest
}

// TakamakaCode is the jar of the base classes, the classpath of every request that needs no other code
func (env *Environment) TakamakaCode() ledger.TransactionReference {
	return env.takamakaCode
}

func (env *Environment) ChainID() string {
	return env.chainID
}

func (env *Environment) Gamete() *keys.KeyedAccount {
	return env.gamete
}

// LocalGamete is the account all fixtures of this environment are funded from
func (env *Environment) LocalGamete() *keys.KeyedAccount {
	return env.localGamete
}

// QueryNonce reads the nonce of an account from the ledger, ignoring any nonce already handed out
func (env *Environment) QueryNonce(ctx context.Context, account ledger.StorageReference) (*big.Int, error) {
	if err := env.checkOpen(ctx); err != nil {
		return nil, err
	}
	return env.nonces.QueryNonce(ctx, account)
}

// CreateAccounts funds new accounts from the local gamete, outside of any fixture
func (env *Environment) CreateAccounts(ctx context.Context, pairs ...bootstrap.GreenRed) (*bootstrap.Accounts, error) {
	if err := env.checkOpen(ctx); err != nil {
		return nil, err
	}
	withRed := false
	for _, p := range pairs {
		if p.Red != nil && p.Red.Sign() != 0 {
			withRed = true
		}
	}
	if withRed {
		return env.bootstrap.CreateGreenRedAccounts(ctx, env.localGamete, pairs...)
	}
	coins := make([]*big.Int, len(pairs))
	for i, p := range pairs {
		coins[i] = p.Green
	}
	return env.bootstrap.CreateFundedAccounts(ctx, env.localGamete, coins...)
}
