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
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"golang.org/x/crypto/sha3"
)

// Signer signs the canonical encoding of requests on behalf of an account
type Signer interface {
	// Sign returns the 65 byte compact R,S,V signature of the payload
	Sign(ctx context.Context, payload []byte) ([]byte, error)
	// Identity is the public identity the ledger checks signatures against
	Identity() string
}

// KeyedAccount is an account of the ledger together with the key that controls it.
// It is immutable once created.
type KeyedAccount struct {
	Address ledger.StorageReference
	Key     *secp256k1.KeyPair
}

func NewKeyedAccount(address ledger.StorageReference, key *secp256k1.KeyPair) *KeyedAccount {
	return &KeyedAccount{Address: address, Key: key}
}

func (ka *KeyedAccount) Signer() Signer {
	return NewSigner(ka.Key)
}

func (ka *KeyedAccount) String() string {
	return ka.Address.String()
}

type secp256k1Signer struct {
	kp *secp256k1.KeyPair
}

func NewSigner(kp *secp256k1.KeyPair) Signer {
	return &secp256k1Signer{kp: kp}
}

func (s *secp256k1Signer) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	sig, err := s.kp.SignDirect(digest(payload))
	if err != nil {
		return nil, i18n.NewError(ctx, thmsgs.MsgSigningFailed, err)
	}
	return sig.CompactRSV(), nil
}

func (s *secp256k1Signer) Identity() string {
	return Identity(s.kp)
}

// Identity is the string the ledger stores as the public key of an account controlled by kp
func Identity(kp *secp256k1.KeyPair) string {
	return kp.Address.String()
}

func GenerateKey(ctx context.Context) (*secp256k1.KeyPair, error) {
	kp, err := secp256k1.GenerateSecp256k1KeyPair()
	if err != nil {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidPrivateKey, err)
	}
	return kp, nil
}

// DeriveKey deterministically derives the index'th key from a seed, so that
// fixed accounts such as the gamete get the same key on every run
func DeriveKey(seed []byte, index uint32) *secp256k1.KeyPair {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(seed)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	hash.Write(idx[:])
	return secp256k1.KeyPairFromBytes(hash.Sum(nil))
}

func ParsePrivateKey(ctx context.Context, s string) (*secp256k1.KeyPair, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != 32 {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidPrivateKey, "must be 32 bytes of hex")
	}
	return secp256k1.KeyPairFromBytes(b), nil
}

// PrivateKeyHex renders the private key so it can be handed to the holder of the account
func PrivateKeyHex(kp *secp256k1.KeyPair) string {
	return "0x" + hex.EncodeToString(kp.PrivateKeyBytes())
}

// digest is what is signed, as the Direct secp256k1 functions only take 32 bytes
func digest(payload []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(payload)
	return hash.Sum(nil)
}

// VerifySignature checks the signature of payload was produced by the key with the given identity
func VerifySignature(ctx context.Context, payload, signature []byte, identity string) error {
	sig, err := secp256k1.DecodeCompactRSV(ctx, signature)
	if err != nil {
		return i18n.NewError(ctx, thmsgs.MsgInvalidSignature, err)
	}
	addr, err := sig.RecoverDirect(digest(payload), 0)
	if err != nil {
		return i18n.NewError(ctx, thmsgs.MsgInvalidSignature, err)
	}
	if !strings.EqualFold(addr.String(), identity) {
		return i18n.NewError(ctx, thmsgs.MsgInvalidSignature, "signer "+addr.String()+" does not match "+identity)
	}
	return nil
}
