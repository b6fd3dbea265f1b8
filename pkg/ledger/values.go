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

package ledger

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
)

// StorageType is either one of the basic types below, or the name of a class
type StorageType string

const (
	TypeBigInteger StorageType = "biginteger"
	TypeString     StorageType = "string"
	TypeInt        StorageType = "int"
	TypeLong       StorageType = "long"
	TypeBoolean    StorageType = "boolean"
	// TypeNull is only the type of the null value, never of a formal
	TypeNull StorageType = "null"
)

func (st StorageType) IsBasic() bool {
	switch st {
	case TypeBigInteger, TypeString, TypeInt, TypeLong, TypeBoolean, TypeNull:
		return true
	default:
		return false
	}
}

// StorageValue is a value that can be passed to, or returned from, code
// running in the ledger. References to objects carry the class type when
// known, or the generic TypeReference.
type StorageValue struct {
	Type  StorageType `json:"type"`
	Value string      `json:"value"`
}

// TypeReference is the type of a reference value whose class is not known
const TypeReference StorageType = "reference"

func BigIntegerOf(i int64) *StorageValue {
	return &StorageValue{Type: TypeBigInteger, Value: strconv.FormatInt(i, 10)}
}

func BigIntegerOfBig(i *big.Int) *StorageValue {
	return &StorageValue{Type: TypeBigInteger, Value: i.String()}
}

func StringOf(s string) *StorageValue {
	return &StorageValue{Type: TypeString, Value: s}
}

func IntOf(i int32) *StorageValue {
	return &StorageValue{Type: TypeInt, Value: strconv.FormatInt(int64(i), 10)}
}

func LongOf(i int64) *StorageValue {
	return &StorageValue{Type: TypeLong, Value: strconv.FormatInt(i, 10)}
}

func BooleanOf(b bool) *StorageValue {
	return &StorageValue{Type: TypeBoolean, Value: strconv.FormatBool(b)}
}

func ReferenceOf(ref StorageReference) *StorageValue {
	return &StorageValue{Type: TypeReference, Value: ref.String()}
}

func NullValue() *StorageValue {
	return &StorageValue{Type: TypeNull}
}

func (sv *StorageValue) String() string {
	if sv == nil {
		return "<void>"
	}
	return sv.Value
}

func (sv *StorageValue) IsNull() bool {
	return sv.Type == TypeNull
}

func (sv *StorageValue) IsReference() bool {
	return !sv.Type.IsBasic() && sv.Type != ""
}

func (sv *StorageValue) AsBigInt(ctx context.Context) (*big.Int, error) {
	i, ok := new(big.Int).SetString(sv.Value, 10)
	if !ok || (sv.Type != TypeBigInteger && sv.Type != TypeInt && sv.Type != TypeLong) {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeBigInteger)
	}
	return i, nil
}

func (sv *StorageValue) AsInt(ctx context.Context) (int32, error) {
	if sv.Type != TypeInt {
		return 0, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeInt)
	}
	i, err := strconv.ParseInt(sv.Value, 10, 32)
	if err != nil {
		return 0, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeInt)
	}
	return int32(i), nil
}

func (sv *StorageValue) AsLong(ctx context.Context) (int64, error) {
	if sv.Type != TypeLong && sv.Type != TypeInt {
		return 0, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeLong)
	}
	i, err := strconv.ParseInt(sv.Value, 10, 64)
	if err != nil {
		return 0, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeLong)
	}
	return i, nil
}

func (sv *StorageValue) AsBool(ctx context.Context) (bool, error) {
	b, err := strconv.ParseBool(sv.Value)
	if sv.Type != TypeBoolean || err != nil {
		return false, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeBoolean)
	}
	return b, nil
}

func (sv *StorageValue) AsString(ctx context.Context) (string, error) {
	if sv.Type != TypeString {
		return "", i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeString)
	}
	return sv.Value, nil
}

func (sv *StorageValue) AsReference(ctx context.Context) (StorageReference, error) {
	if !sv.IsReference() {
		return StorageReference{}, i18n.NewError(ctx, thmsgs.MsgInvalidStorageValue, sv.Value, TypeReference)
	}
	return ParseStorageReference(ctx, sv.Value)
}

// ConstructorSignature identifies a constructor by its class and formal types
type ConstructorSignature struct {
	DefiningClass string        `json:"definingClass"`
	Formals       []StorageType `json:"formals"`
}

func NewConstructorSignature(definingClass string, formals ...StorageType) *ConstructorSignature {
	return &ConstructorSignature{DefiningClass: definingClass, Formals: formals}
}

func (cs *ConstructorSignature) Key() string {
	return signatureKey("<init>", cs.Formals)
}

func (cs *ConstructorSignature) String() string {
	return cs.DefiningClass + "." + cs.Key()
}

// MethodSignature identifies a method. An empty Returns means the method is void.
type MethodSignature struct {
	DefiningClass string        `json:"definingClass"`
	Name          string        `json:"name"`
	Formals       []StorageType `json:"formals"`
	Returns       StorageType   `json:"returns,omitempty"`
}

func NewVoidMethodSignature(definingClass, name string, formals ...StorageType) *MethodSignature {
	return &MethodSignature{DefiningClass: definingClass, Name: name, Formals: formals}
}

func NewNonVoidMethodSignature(definingClass, name string, returns StorageType, formals ...StorageType) *MethodSignature {
	return &MethodSignature{DefiningClass: definingClass, Name: name, Formals: formals, Returns: returns}
}

func (ms *MethodSignature) IsVoid() bool {
	return ms.Returns == ""
}

// Key identifies the method within its class, ignoring the return type
func (ms *MethodSignature) Key() string {
	return signatureKey(ms.Name, ms.Formals)
}

func (ms *MethodSignature) String() string {
	if ms.IsVoid() {
		return "void " + ms.DefiningClass + "." + ms.Key()
	}
	return string(ms.Returns) + " " + ms.DefiningClass + "." + ms.Key()
}

func signatureKey(name string, formals []StorageType) string {
	f := make([]string, len(formals))
	for i, t := range formals {
		f[i] = string(t)
	}
	return name + "(" + strings.Join(f, ",") + ")"
}
