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

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, extra string) string {
	dir := t.TempDir()
	cfg := fmt.Sprintf(`---
log:
  level: debug
api:
  address: 127.0.0.1
  port: 0
node:
  backend: memory
  memory:
    path: %s
polling:
  delay: 1ms
%s`, filepath.Join(dir, "node"), extra)
	cfgPath := filepath.Join(dir, "ffth.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	root := newRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunOK(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := executeCommand(t, "-f", cfgPath)
		assert.NoError(t, err)
	}()

	time.Sleep(10 * time.Millisecond)
	sigs <- os.Kill

	<-done
}

func TestRunMissingConfig(t *testing.T) {
	_, err := executeCommand(t, "-f", "../test/does-not-exist.ffth.yaml")
	assert.Regexp(t, "FF00101", err)
}

func TestRunBadGameteKey(t *testing.T) {
	cfgPath := writeTestConfig(t, "gamete:\n  privateKey: wrong\n")
	_, err := executeCommand(t, "-f", cfgPath)
	assert.Regexp(t, "FF21208", err)
}

func TestRunBadAPIConfig(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	cfg, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, bytes.Replace(cfg, []byte("127.0.0.1"), []byte(`"::::"`), 1), 0644))

	_, err = executeCommand(t, "-f", cfgPath)
	assert.Error(t, err)
}

func TestAccountsCreateThenNonce(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	out, err := executeCommand(t, "-f", cfgPath, "accounts", "create", "-c", "1000", "-c", "2000", "-r", "50")
	require.NoError(t, err)

	var accounts []*createdAccount
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, "1000", accounts[0].Balance)
	assert.Equal(t, "50", accounts[0].RedBalance)
	assert.Equal(t, "2000", accounts[1].Balance)
	assert.Empty(t, accounts[1].RedBalance)
	assert.NotEqual(t, accounts[0].Address, accounts[1].Address)
	assert.Regexp(t, "^0x[0-9a-f]{64}$", accounts[0].PrivateKey)

	// the store on disk keeps the accounts for the next command
	out, err = executeCommand(t, "-f", cfgPath, "nonce", accounts[1].Address)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestAccountsCreateBadAmounts(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := executeCommand(t, "-f", cfgPath, "accounts", "create")
	assert.Regexp(t, "FF21219", err)

	_, err = executeCommand(t, "-f", cfgPath, "accounts", "create", "-c", "lots")
	assert.Regexp(t, "FF21230.*lots", err)

	_, err = executeCommand(t, "-f", cfgPath, "accounts", "create", "-c", "-1")
	assert.Regexp(t, "FF21230", err)

	_, err = executeCommand(t, "-f", cfgPath, "accounts", "create", "-c", "1", "-r", "1", "-r", "2")
	assert.Regexp(t, "FF21230.*2", err)
}

func TestAccountsCreateMissingConfig(t *testing.T) {
	_, err := executeCommand(t, "-f", "../test/does-not-exist.ffth.yaml", "accounts", "create", "-c", "1")
	assert.Regexp(t, "FF00101", err)
}

func TestAccountsCreateRemoteWithoutKey(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	cfg, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, bytes.Replace(cfg, []byte("backend: memory"), []byte("backend: remote"), 1), 0644))

	_, err = executeCommand(t, "-f", cfgPath, "accounts", "create", "-c", "1")
	assert.Regexp(t, "FF21235", err)
}

func TestNonceBadArgs(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := executeCommand(t, "-f", cfgPath, "nonce")
	assert.Error(t, err)

	_, err = executeCommand(t, "-f", cfgPath, "nonce", "not-a-reference")
	assert.Regexp(t, "FF21205", err)

	_, err = executeCommand(t, "-f", "../test/does-not-exist.ffth.yaml", "nonce", "x")
	assert.Regexp(t, "FF00101", err)
}

func TestNonceRemoteWithoutKey(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	cfg, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, bytes.Replace(cfg, []byte("backend: memory"), []byte("backend: remote"), 1), 0644))

	_, err = executeCommand(t, "-f", cfgPath, "nonce", "1111111111111111111111111111111111111111111111111111111111111111#0")
	assert.Regexp(t, "FF21235", err)
}
