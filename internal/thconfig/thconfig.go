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

package thconfig

import (
	"context"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/ffresty"
	"github.com/hyperledger/firefly-common/pkg/httpserver"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/spf13/viper"
)

var ffc = config.AddRootKey

var (
	// NodeBackend selects which NodeBackend variant the environment resolves
	NodeBackend = ffc("node.backend")
	// NodeMemoryPath is the LevelDB directory of the in-memory node (empty for pure memory)
	NodeMemoryPath                 = ffc("node.memory.path")
	NodeMemoryChainID              = ffc("node.memory.chainId")
	NodeMemoryInitialSupply        = ffc("node.memory.initialSupply")
	NodeMemoryInitialRedSupply     = ffc("node.memory.initialRedSupply")
	NodeMemoryMaxGasPerTransaction = ffc("node.memory.maxGasPerTransaction")
	NodeMemoryMinGasPrice          = ffc("node.memory.minGasPrice")
	NodeMemoryQueueLength          = ffc("node.memory.queueLength")
	// NodeClusterURLs lists the cluster members in failover order
	NodeClusterURLs = ffc("node.cluster.urls")

	GameteSeed       = ffc("gamete.seed")
	GametePrivateKey = ffc("gamete.privateKey")

	NoncesViewGasLimit      = ffc("nonces.viewGasLimit")
	NoncesClassTagCacheSize = ffc("nonces.classTagCacheSize")

	// PollingMaxAttempts bounds the number of polls made when resolving a posted transaction
	PollingMaxAttempts = ffc("polling.maxAttempts")
	// PollingDelay is the fixed delay between those polls
	PollingDelay = ffc("polling.delay")

	BootstrapContainerClass = ffc("bootstrap.containerClass")
	BootstrapGasPerAccount  = ffc("bootstrap.gasPerAccount")
	BootstrapGasPrice       = ffc("bootstrap.gasPrice")

	EnvironmentLocalGameteFunds    = ffc("environment.localGameteFunds")
	EnvironmentLocalGameteRedFunds = ffc("environment.localGameteRedFunds")

	JournalType              = ffc("journal.type")
	JournalLevelDBPath       = ffc("journal.leveldb.path")
	JournalLevelDBMaxHandles = ffc("journal.leveldb.maxHandles")
	JournalLevelDBSyncWrites = ffc("journal.leveldb.syncWrites")

	MetricsEnabled = ffc("metrics.enabled")
)

var APIConfig config.Section

var CorsConfig config.Section

var NodeRemoteConfig config.Section

var NodeClusterConfig config.Section

var JournalPostgresConfig config.Section

func setDefaults() {
	viper.SetDefault(string(NodeBackend), "memory")
	viper.SetDefault(string(NodeMemoryChainID), "ffth")
	viper.SetDefault(string(NodeMemoryInitialSupply), "1000000000000000000000000000000000000000000000000000000000")
	viper.SetDefault(string(NodeMemoryInitialRedSupply), "1000000000000000000000000000000000000000000000000000000000")
	viper.SetDefault(string(NodeMemoryMaxGasPerTransaction), "1000000000")
	viper.SetDefault(string(NodeMemoryMinGasPrice), "1")
	viper.SetDefault(string(NodeMemoryQueueLength), 1000)
	viper.SetDefault(string(NodeClusterURLs), []string{})
	viper.SetDefault(string(GameteSeed), "0x00000000000000000000000000000000")
	viper.SetDefault(string(NoncesViewGasLimit), "100000")
	viper.SetDefault(string(NoncesClassTagCacheSize), 1000)
	viper.SetDefault(string(PollingMaxAttempts), 100)
	viper.SetDefault(string(PollingDelay), "10ms")
	viper.SetDefault(string(BootstrapContainerClass), "ledger.Accounts")
	viper.SetDefault(string(BootstrapGasPerAccount), "200000")
	viper.SetDefault(string(BootstrapGasPrice), "1")
	viper.SetDefault(string(EnvironmentLocalGameteFunds), "1000000000000000000000000000000000000000000000000")
	viper.SetDefault(string(EnvironmentLocalGameteRedFunds), "1000000000000000000000000000000000000000000000000")
	viper.SetDefault(string(JournalType), "none")
	viper.SetDefault(string(JournalLevelDBMaxHandles), 100)
	viper.SetDefault(string(JournalLevelDBSyncWrites), false)
	viper.SetDefault(string(MetricsEnabled), false)
}

func Reset() {
	config.RootConfigReset(setDefaults)

	APIConfig = config.RootSection("api")
	httpserver.InitHTTPConfig(APIConfig, 5108)

	CorsConfig = config.RootSection("cors")
	httpserver.InitCORSConfig(CorsConfig)

	nodeConfig := config.RootSection("node")
	NodeRemoteConfig = nodeConfig.SubSection("remote")
	ffresty.InitConfig(NodeRemoteConfig)
	NodeClusterConfig = nodeConfig.SubSection("cluster")
	ffresty.InitConfig(NodeClusterConfig)

	JournalPostgresConfig = config.RootSection("journal").SubSection("postgres")
}

// GetBigInt reads a key holding a decimal integer, such as an amount of coins or of gas
func GetBigInt(ctx context.Context, key config.RootKey) (*big.Int, error) {
	s := config.GetString(key)
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidCoinAmount, s, key)
	}
	return i, nil
}
