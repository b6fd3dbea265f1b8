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
	"fmt"
	"math/big"

	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// Object is an object in the store of the node
type Object struct {
	Ref    ledger.StorageReference          `json:"-"`
	Class  string                           `json:"class"`
	Jar    ledger.TransactionReference      `json:"jar"`
	Fields map[string]*ledger.StorageValue `json:"fields"`
}

func (o *Object) Get(name string) *ledger.StorageValue {
	v := o.Fields[name]
	if v == nil {
		return ledger.NullValue()
	}
	return v
}

func (o *Object) Set(name string, v *ledger.StorageValue) {
	o.Fields[name] = v
}

// BigInt returns a biginteger field, where a missing field is zero
func (o *Object) BigInt(name string) *big.Int {
	v := o.Fields[name]
	if v == nil {
		return new(big.Int)
	}
	i, ok := new(big.Int).SetString(v.Value, 10)
	if !ok {
		return new(big.Int)
	}
	return i
}

func (o *Object) SetBigInt(name string, i *big.Int) {
	o.Fields[name] = ledger.BigIntegerOfBig(i)
}

// Failure is an error raised by class code. It makes the transaction fail
// with the given cause, rather than be rejected.
type Failure struct {
	Cause   ledger.CauseTag
	Message string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Cause, f.Message)
}

func Fail(cause ledger.CauseTag, format string, a ...interface{}) *Failure {
	return &Failure{Cause: cause, Message: fmt.Sprintf(format, a...)}
}

type ConstructorFn func(f *Frame, this *Object, args []*ledger.StorageValue) error

// MethodFn is the code of a method. The receiver is nil for static methods,
// and a nil result means the method is void.
type MethodFn func(f *Frame, this *Object, args []*ledger.StorageValue) (*ledger.StorageValue, error)

// Class is the code of a class, that transactions can run
type Class struct {
	Name string
	// Super is the name of the superclass, whose methods are inherited
	Super         string
	Constructors  map[string]ConstructorFn
	Methods       map[string]MethodFn
	StaticMethods map[string]MethodFn
}

// Frame is what class code sees of the transaction it runs in
type Frame struct {
	ctx         context.Context
	n           *Node
	state       *overlay
	caller      ledger.StorageReference
	reference   ledger.TransactionReference
	classpath   ledger.TransactionReference
	gasLimit    *big.Int
	gasConsumed *big.Int
	progressive uint64
	objects     map[ledger.StorageReference]*Object
}

func (f *Frame) Context() context.Context {
	return f.ctx
}

func (f *Frame) Caller() ledger.StorageReference {
	return f.caller
}

// Charge consumes gas, failing with an OutOfGasError when the gas limit is exceeded
func (f *Frame) Charge(units int64) error {
	f.gasConsumed.Add(f.gasConsumed, big.NewInt(units))
	if f.gasConsumed.Cmp(f.gasLimit) > 0 {
		f.gasConsumed.Set(f.gasLimit)
		return Fail(ledger.CauseOutOfGas, "the transaction ran out of its %s units of gas", f.gasLimit)
	}
	return nil
}

// Load returns the object at ref, failing with a NoSuchElementError if there is none
func (f *Frame) Load(ref ledger.StorageReference) (*Object, error) {
	if o, ok := f.objects[ref]; ok {
		return o, nil
	}
	o := &Object{}
	found, err := f.state.getJSON(f.ctx, objectKey(ref), o)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Fail(ledger.CauseNoSuchElement, "unknown object %s", ref)
	}
	o.Ref = ref
	if o.Fields == nil {
		o.Fields = map[string]*ledger.StorageValue{}
	}
	f.objects[ref] = o
	return o, nil
}

// LoadValue loads the object a reference value points to
func (f *Frame) LoadValue(v *ledger.StorageValue) (*Object, error) {
	if v == nil || v.IsNull() {
		return nil, Fail(ledger.CauseNullPointer, "null reference")
	}
	ref, err := v.AsReference(f.ctx)
	if err != nil {
		return nil, Fail(ledger.CauseIllegalArgument, "%s", err)
	}
	return f.Load(ref)
}

// New creates an object of a class, that is stored if the transaction succeeds
func (f *Frame) New(class string, fields map[string]*ledger.StorageValue) (*Object, error) {
	if err := f.Charge(gasPerObject); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]*ledger.StorageValue{}
	}
	o := &Object{
		Ref:    ledger.StorageReference{Transaction: f.reference, Progressive: f.progressive},
		Class:  class,
		Jar:    f.classpath,
		Fields: fields,
	}
	f.progressive++
	f.objects[o.Ref] = o
	return o, nil
}

// Construct runs a constructor of a class, as if called from class code
func (f *Frame) Construct(class string, signature *ledger.ConstructorSignature, args ...*ledger.StorageValue) (*Object, error) {
	c, err := f.n.classes.lookupConstructor(class, signature)
	if err != nil {
		return nil, err
	}
	o, err := f.New(class, nil)
	if err != nil {
		return nil, err
	}
	if err := c(f, o, args); err != nil {
		return nil, err
	}
	return o, nil
}

// Transfer moves coins of a balance field between two objects, failing with
// an InsufficientFundsError when from cannot pay
func (f *Frame) Transfer(field string, from, to *Object, amount *big.Int) error {
	if amount.Sign() < 0 {
		return Fail(ledger.CauseIllegalArgument, "negative amount %s", amount)
	}
	balance := from.BigInt(field)
	if balance.Cmp(amount) < 0 {
		return Fail(ledger.CauseInsufficientFunds, "%s of %s is %s, which is less than %s", field, from.Ref, balance, amount)
	}
	from.SetBigInt(field, balance.Sub(balance, amount))
	to.SetBigInt(field, new(big.Int).Add(to.BigInt(field), amount))
	return nil
}

func (f *Frame) flush() error {
	for ref, o := range f.objects {
		if err := f.state.putJSON(f.ctx, objectKey(ref), o); err != nil {
			return err
		}
	}
	return nil
}
