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

package thmsgs

import (
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"golang.org/x/text/language"
)

var ffc = func(key, translation, fieldType string) i18n.ConfigMessageKey {
	return i18n.FFC(language.AmericanEnglish, key, translation, fieldType)
}

//revive:disable
var (
	ConfigNodeBackend = ffc("config.node.backend", "The node backend the harness submits to: memory, remote or cluster", i18n.StringType)

	ConfigNodeMemoryPath                 = ffc("config.node.memory.path", "Directory for the in-memory node's LevelDB state. Empty keeps all state in memory", i18n.StringType)
	ConfigNodeMemoryChainID              = ffc("config.node.memory.chainId", "Chain identifier the in-memory node requires on every signed request", i18n.StringType)
	ConfigNodeMemoryInitialSupply        = ffc("config.node.memory.initialSupply", "Green balance of the gamete created when the in-memory node initializes", i18n.StringType)
	ConfigNodeMemoryInitialRedSupply     = ffc("config.node.memory.initialRedSupply", "Red balance of the gamete created when the in-memory node initializes", i18n.StringType)
	ConfigNodeMemoryMaxGasPerTransaction = ffc("config.node.memory.maxGasPerTransaction", "Requests with a larger gas limit are rejected", i18n.StringType)
	ConfigNodeMemoryMinGasPrice          = ffc("config.node.memory.minGasPrice", "Requests with a lower gas price are rejected", i18n.StringType)
	ConfigNodeMemoryQueueLength          = ffc("config.node.memory.queueLength", "Number of posted transactions that can wait for delivery", i18n.IntType)

	ConfigNodeClusterURLs = ffc("config.node.cluster.urls", "The URLs of the members of the consensus cluster, in failover order", i18n.ArrayStringType)

	ConfigGameteSeed       = ffc("config.gamete.seed", "Hex seed from which the in-memory node's gamete key is derived", i18n.StringType)
	ConfigGametePrivateKey = ffc("config.gamete.privateKey", "Hex private key of the gamete. Required for remote and cluster backends", i18n.StringType)

	ConfigNoncesViewGasLimit      = ffc("config.nonces.viewGasLimit", "Gas limit of the view call that reads the nonce of an account", i18n.StringType)
	ConfigNoncesClassTagCacheSize = ffc("config.nonces.classTagCacheSize", "Number of account class tags kept in memory", i18n.IntType)

	ConfigPollingMaxAttempts = ffc("config.polling.maxAttempts", "Maximum number of polls for the outcome of a posted transaction", i18n.IntType)
	ConfigPollingDelay       = ffc("config.polling.delay", "Fixed delay between polls for the outcome of a posted transaction", i18n.TimeDurationType)

	ConfigBootstrapContainerClass = ffc("config.bootstrap.containerClass", "Class whose constructor creates a batch of funded accounts", i18n.StringType)
	ConfigBootstrapGasPerAccount  = ffc("config.bootstrap.gasPerAccount", "Gas allowed per account created in a batch", i18n.StringType)
	ConfigBootstrapGasPrice       = ffc("config.bootstrap.gasPrice", "Gas price of the transactions that create accounts", i18n.StringType)

	ConfigEnvironmentLocalGameteFunds    = ffc("config.environment.localGameteFunds", "Green balance of the local gamete every fixture is funded from", i18n.StringType)
	ConfigEnvironmentLocalGameteRedFunds = ffc("config.environment.localGameteRedFunds", "Red balance of the local gamete every fixture is funded from", i18n.StringType)

	ConfigJournalType               = ffc("config.journal.type", "Where classified submissions are recorded: none, leveldb or postgres", i18n.StringType)
	ConfigJournalLevelDBPath        = ffc("config.journal.leveldb.path", "The path for the LevelDB journal", i18n.StringType)
	ConfigJournalLevelDBMaxHandles  = ffc("config.journal.leveldb.maxHandles", "The maximum number of cached file handles LevelDB should keep open", i18n.IntType)
	ConfigJournalLevelDBSyncWrites  = ffc("config.journal.leveldb.syncWrites", "Whether to synchronously perform writes to the journal", i18n.BooleanType)
	ConfigJournalPostgresMigrations = ffc("config.journal.postgres.migrations.auto", "Run the journal migrations on startup", i18n.BooleanType)

	ConfigMetricsEnabled = ffc("config.metrics.enabled", "Enables the harness metrics", i18n.BooleanType)

	ConfigAPIAddress = ffc("config.api.address", "Listener address for the node server", i18n.StringType)
	ConfigAPIPort    = ffc("config.api.port", "Listener port for the node server", i18n.IntType)
)
