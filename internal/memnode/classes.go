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

package memnode

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

const (
	gasPerCall     = 100
	gasPerArgument = 10
	gasPerObject   = 100
	gasPerJarByte  = 1
)

const (
	ClassExternallyOwnedAccount = "ledger.ExternallyOwnedAccount"
	ClassGamete                 = "ledger.Gamete"
	ClassAccounts               = "ledger.Accounts"
	ClassManifest               = "ledger.Manifest"
)

const causeIllegalState ledger.CauseTag = "IllegalStateError"

type classRegistry struct {
	classes map[string]*Class
}

func newClassRegistry() *classRegistry {
	r := &classRegistry{classes: map[string]*Class{}}
	for _, c := range builtinClasses() {
		r.classes[c.Name] = c
	}
	return r
}

func (r *classRegistry) register(ctx context.Context, c *Class) error {
	if _, exists := r.classes[c.Name]; exists {
		return i18n.NewError(ctx, thmsgs.MsgClassAlreadyRegistered, c.Name)
	}
	r.classes[c.Name] = c
	return nil
}

// isA reports whether class is super, or one of its subclasses
func (r *classRegistry) isA(class, super string) bool {
	for c := r.classes[class]; c != nil; c = r.classes[c.Super] {
		if c.Name == super {
			return true
		}
	}
	return false
}

// constructors are not inherited
func (r *classRegistry) lookupConstructor(class string, signature *ledger.ConstructorSignature) (ConstructorFn, error) {
	c := r.classes[signature.DefiningClass]
	if c == nil || class != signature.DefiningClass {
		return nil, Fail(ledger.CauseNoSuchMethod, "unknown constructor %s", signature)
	}
	fn := c.Constructors[signature.Key()]
	if fn == nil {
		return nil, Fail(ledger.CauseNoSuchMethod, "unknown constructor %s", signature)
	}
	return fn, nil
}

// lookupMethod starts from the class of the receiver and walks up its superclasses
func (r *classRegistry) lookupMethod(class string, signature *ledger.MethodSignature) (MethodFn, error) {
	if !r.isA(class, signature.DefiningClass) {
		return nil, Fail(ledger.CauseNoSuchMethod, "unknown method %s for an object of class %s", signature, class)
	}
	for c := r.classes[class]; c != nil; c = r.classes[c.Super] {
		if fn := c.Methods[signature.Key()]; fn != nil {
			return fn, nil
		}
	}
	return nil, Fail(ledger.CauseNoSuchMethod, "unknown method %s", signature)
}

func (r *classRegistry) lookupStatic(signature *ledger.MethodSignature) (MethodFn, error) {
	c := r.classes[signature.DefiningClass]
	if c == nil || c.StaticMethods[signature.Key()] == nil {
		return nil, Fail(ledger.CauseNoSuchMethod, "unknown static method %s", signature)
	}
	return c.StaticMethods[signature.Key()], nil
}

// actualMatches checks an actual against a formal. Any reference, or null, can
// be passed for a formal that is a class.
func actualMatches(formal ledger.StorageType, actual *ledger.StorageValue) bool {
	if actual == nil {
		return false
	}
	if formal.IsBasic() {
		return actual.Type == formal
	}
	return actual.IsNull() || actual.IsReference()
}

func checkActuals(ctx context.Context, formals []ledger.StorageType, actuals []*ledger.StorageValue) *ledger.RejectedError {
	if len(formals) != len(actuals) {
		return ledger.NewRejectedError(ledger.CauseMalformedRequest, "expected %d actuals but got %d", len(formals), len(actuals))
	}
	for i, formal := range formals {
		if !actualMatches(formal, actuals[i]) {
			return ledger.NewRejectedError(ledger.CauseMalformedRequest, "actual %d is not a %s", i, formal)
		}
		if formal.IsBasic() {
			if err := checkBasicValue(ctx, formal, actuals[i]); err != nil {
				return ledger.NewRejectedError(ledger.CauseMalformedRequest, "%s", err)
			}
		}
	}
	return nil
}

func checkBasicValue(ctx context.Context, t ledger.StorageType, v *ledger.StorageValue) (err error) {
	switch t {
	case ledger.TypeBigInteger:
		_, err = v.AsBigInt(ctx)
	case ledger.TypeInt:
		_, err = v.AsInt(ctx)
	case ledger.TypeLong:
		_, err = v.AsLong(ctx)
	case ledger.TypeBoolean:
		_, err = v.AsBool(ctx)
	}
	return err
}

func argBigInt(f *Frame, args []*ledger.StorageValue, i int) (*big.Int, error) {
	v, err := args[i].AsBigInt(f.ctx)
	if err != nil {
		return nil, Fail(ledger.CauseIllegalArgument, "%s", err)
	}
	return v, nil
}

// argList splits a string argument holding a space separated list
func argList(args []*ledger.StorageValue, i int) []string {
	return strings.Fields(args[i].Value)
}

func referenceTo(o *Object) *ledger.StorageValue {
	return &ledger.StorageValue{Type: ledger.StorageType(o.Class), Value: o.Ref.String()}
}

func field(name string) MethodFn {
	return func(_ *Frame, this *Object, _ []*ledger.StorageValue) (*ledger.StorageValue, error) {
		return this.Get(name), nil
	}
}

func builtinClasses() []*Class {
	return []*Class{
		{
			Name: ClassExternallyOwnedAccount,
			Constructors: map[string]ConstructorFn{
				"<init>(biginteger,string)": newExternallyOwnedAccount,
			},
			Methods: map[string]MethodFn{
				"nonce()":                field("nonce"),
				"balance()":              field("balance"),
				"balanceRed()":           field("balanceRed"),
				"publicKey()":            field("publicKey"),
				"receive(biginteger)":    receive("balance"),
				"receiveRed(biginteger)": receive("balanceRed"),
			},
		},
		{
			Name:  ClassGamete,
			Super: ClassExternallyOwnedAccount,
		},
		{
			Name: ClassAccounts,
			Constructors: map[string]ConstructorFn{
				"<init>(biginteger,string,string)": newAccounts,
			},
			Methods: map[string]MethodFn{
				"get(int)":                          accountsGet,
				"size()":                            field("size"),
				"balance()":                         field("balance"),
				"addRedBalances(biginteger,string)": accountsAddRedBalances,
			},
		},
		{
			Name: ClassManifest,
			Methods: map[string]MethodFn{
				"getGamete()":  field("gamete"),
				"getChainId()": field("chainId"),
			},
		},
	}
}

func initAccount(this *Object, publicKey string) {
	this.SetBigInt("nonce", new(big.Int))
	this.SetBigInt("balance", new(big.Int))
	this.SetBigInt("balanceRed", new(big.Int))
	this.Set("publicKey", ledger.StringOf(publicKey))
}

// newExternallyOwnedAccount is paid for by the caller
func newExternallyOwnedAccount(f *Frame, this *Object, args []*ledger.StorageValue) error {
	amount, err := argBigInt(f, args, 0)
	if err != nil {
		return err
	}
	caller, err := f.Load(f.Caller())
	if err != nil {
		return err
	}
	initAccount(this, args[1].Value)
	return f.Transfer("balance", caller, this, amount)
}

func receive(balanceField string) MethodFn {
	return func(f *Frame, this *Object, args []*ledger.StorageValue) (*ledger.StorageValue, error) {
		amount, err := argBigInt(f, args, 0)
		if err != nil {
			return nil, err
		}
		caller, err := f.Load(f.Caller())
		if err != nil {
			return nil, err
		}
		return nil, f.Transfer(balanceField, caller, this, amount)
	}
}

// newAccounts takes the sum of the balances from the caller, then creates
// one account per public key and pays each its balance
func newAccounts(f *Frame, this *Object, args []*ledger.StorageValue) error {
	amount, err := argBigInt(f, args, 0)
	if err != nil {
		return err
	}
	balances, publicKeys := argList(args, 1), argList(args, 2)
	if len(balances) != len(publicKeys) {
		return Fail(ledger.CauseIllegalArgument, "%d balances for %d public keys", len(balances), len(publicKeys))
	}
	caller, err := f.Load(f.Caller())
	if err != nil {
		return err
	}
	this.SetBigInt("balance", new(big.Int))
	this.SetBigInt("balanceRed", new(big.Int))
	if err := f.Transfer("balance", caller, this, amount); err != nil {
		return err
	}
	for i, b := range balances {
		balance, ok := new(big.Int).SetString(b, 10)
		if !ok {
			return Fail(ledger.CauseIllegalArgument, "invalid balance '%s'", b)
		}
		account, err := f.New(ClassExternallyOwnedAccount, nil)
		if err != nil {
			return err
		}
		initAccount(account, publicKeys[i])
		if err := f.Transfer("balance", this, account, balance); err != nil {
			return err
		}
		this.Set(accountField(i), referenceTo(account))
	}
	this.Set("size", ledger.IntOf(int32(len(balances))))
	return nil
}

func accountField(i int) string {
	return "account." + strconv.Itoa(i)
}

func accountsGet(f *Frame, this *Object, args []*ledger.StorageValue) (*ledger.StorageValue, error) {
	i, err := args[0].AsInt(f.ctx)
	if err != nil {
		return nil, Fail(ledger.CauseIllegalArgument, "%s", err)
	}
	account := this.Fields[accountField(int(i))]
	if i < 0 || account == nil {
		return nil, Fail(ledger.CauseNoSuchElement, "no account %d in %s", i, this.Ref)
	}
	return account, nil
}

// accountsAddRedBalances takes the sum of the red balances from the red balance
// of the caller, and pays each account its red balance
func accountsAddRedBalances(f *Frame, this *Object, args []*ledger.StorageValue) (*ledger.StorageValue, error) {
	amount, err := argBigInt(f, args, 0)
	if err != nil {
		return nil, err
	}
	balances := argList(args, 1)
	size, err := this.Get("size").AsInt(f.ctx)
	if err != nil {
		return nil, Fail(causeIllegalState, "container %s has no size", this.Ref)
	}
	if len(balances) != int(size) {
		return nil, Fail(ledger.CauseIllegalArgument, "%d red balances for %d accounts", len(balances), size)
	}
	caller, err := f.Load(f.Caller())
	if err != nil {
		return nil, err
	}
	if err := f.Transfer("balanceRed", caller, this, amount); err != nil {
		return nil, err
	}
	for i, b := range balances {
		balance, ok := new(big.Int).SetString(b, 10)
		if !ok {
			return nil, Fail(ledger.CauseIllegalArgument, "invalid red balance '%s'", b)
		}
		account, err := f.LoadValue(this.Get(accountField(i)))
		if err != nil {
			return nil, err
		}
		if err := f.Transfer("balanceRed", this, account, balance); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
