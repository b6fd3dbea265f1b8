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

package keys

import (
	"context"
	"testing"

	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	ctx := context.Background()
	kp := DeriveKey([]byte("seed"), 0)
	s := NewSigner(kp)

	sig1, err := s.Sign(ctx, []byte("payload"))
	require.NoError(t, err)
	sig2, err := s.Sign(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.Len(t, sig1, 65)
	assert.Equal(t, sig1, sig2)

	sig3, err := s.Sign(ctx, []byte("payload2"))
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)
}

func TestVerifySignature(t *testing.T) {
	ctx := context.Background()
	kp, err := GenerateKey(ctx)
	require.NoError(t, err)
	ka := NewKeyedAccount(ledger.StorageReference{Transaction: "aa", Progressive: 1}, kp)
	s := ka.Signer()

	sig, err := s.Sign(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.NoError(t, VerifySignature(ctx, []byte("payload"), sig, s.Identity()))

	err = VerifySignature(ctx, []byte("tampered"), sig, s.Identity())
	assert.Regexp(t, "FF21209", err)

	other := DeriveKey([]byte("seed"), 1)
	err = VerifySignature(ctx, []byte("payload"), sig, Identity(other))
	assert.Regexp(t, "FF21209", err)

	err = VerifySignature(ctx, []byte("payload"), sig[0:10], s.Identity())
	assert.Regexp(t, "FF21209", err)
}

func TestDeriveKey(t *testing.T) {
	assert.Equal(t, Identity(DeriveKey([]byte("seed"), 0)), Identity(DeriveKey([]byte("seed"), 0)))
	assert.NotEqual(t, Identity(DeriveKey([]byte("seed"), 0)), Identity(DeriveKey([]byte("seed"), 1)))
	assert.NotEqual(t, Identity(DeriveKey([]byte("seed"), 0)), Identity(DeriveKey([]byte("other"), 0)))
}

func TestParsePrivateKey(t *testing.T) {
	ctx := context.Background()
	kp := DeriveKey([]byte("seed"), 3)

	parsed, err := ParsePrivateKey(ctx, PrivateKeyHex(kp))
	require.NoError(t, err)
	assert.Equal(t, Identity(kp), Identity(parsed))

	_, err = ParsePrivateKey(ctx, "0x1234")
	assert.Regexp(t, "FF21208", err)

	_, err = ParsePrivateKey(ctx, "not hex")
	assert.Regexp(t, "FF21208", err)
}

func TestSignatureCoversWholePayload(t *testing.T) {
	ctx := context.Background()
	kp := DeriveKey([]byte("seed"), 0)

	payload := make([]byte, 64)
	sig, err := NewSigner(kp).Sign(ctx, payload)
	require.NoError(t, err)

	tampered := make([]byte, 64)
	tampered[63] = 0x01
	sig2, err := NewSigner(kp).Sign(ctx, tampered)
	require.NoError(t, err)
	assert.NotEqual(t, sig, sig2)

	assert.NoError(t, VerifySignature(ctx, payload, sig, Identity(kp)))
	assert.Regexp(t, "FF21209", VerifySignature(ctx, tampered, sig, Identity(kp)))
}
