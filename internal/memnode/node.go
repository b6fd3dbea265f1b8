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
	"errors"
	"math/big"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/sha3"
)

type Config struct {
	// Path is the LevelDB directory of the store, or empty to keep it in memory
	Path                 string
	ChainID              string
	InitialSupply        *big.Int
	InitialRedSupply     *big.Int
	MaxGasPerTransaction *big.Int
	MinGasPrice          *big.Int
	QueueLength          int
	// GameteIdentity is the public key that controls the gamete created with the store
	GameteIdentity string
}

// ConfigFromRoot reads the node.memory configuration
func ConfigFromRoot(ctx context.Context, gameteIdentity string) (conf *Config, err error) {
	conf = &Config{
		Path:           config.GetString(thconfig.NodeMemoryPath),
		ChainID:        config.GetString(thconfig.NodeMemoryChainID),
		QueueLength:    config.GetInt(thconfig.NodeMemoryQueueLength),
		GameteIdentity: gameteIdentity,
	}
	for key, target := range map[config.RootKey]**big.Int{
		thconfig.NodeMemoryInitialSupply:        &conf.InitialSupply,
		thconfig.NodeMemoryInitialRedSupply:     &conf.InitialRedSupply,
		thconfig.NodeMemoryMaxGasPerTransaction: &conf.MaxGasPerTransaction,
		thconfig.NodeMemoryMinGasPrice:          &conf.MinGasPrice,
	} {
		if *target, err = thconfig.GetBigInt(ctx, key); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

// Node is a ledger.Node that keeps its store in LevelDB, in memory or on disk.
//
// Requests are admitted synchronously, then delivered one at a time in
// admission order by a single worker. The state changes of each delivery are
// committed to the store in one batch, or not at all.
type Node struct {
	conf      *Config
	db        *leveldb.DB
	store     *dbReader
	classes   *classRegistry
	bgCtx     context.Context
	cancelCtx context.CancelFunc
	queue     chan *pendingRequest
	done      chan struct{}

	mux          sync.Mutex
	closed       bool
	manifest     ledger.StorageReference
	takamakaCode ledger.TransactionReference
	pending      map[ledger.TransactionReference]*pendingRequest
	// pendingNonces counts the admitted but undelivered requests of each caller
	pendingNonces map[ledger.StorageReference]int64
}

type pendingRequest struct {
	ref       ledger.TransactionReference
	req       *ledger.TransactionRequest
	delivered chan struct{}
}

type storedObject struct {
	Ref ledger.StorageReference `json:"ref"`
}

type storedJar struct {
	Jar          []byte                        `json:"jar,omitempty"`
	Dependencies []ledger.TransactionReference `json:"dependencies,omitempty"`
}

type storedRejection struct {
	Cause   ledger.CauseTag `json:"cause"`
	Message string          `json:"message"`
}

func NewFromConfig(ctx context.Context, gameteIdentity string) (*Node, error) {
	conf, err := ConfigFromRoot(ctx, gameteIdentity)
	if err != nil {
		return nil, err
	}
	return New(ctx, conf)
}

func New(ctx context.Context, conf *Config) (*Node, error) {
	if conf.GameteIdentity == "" {
		return nil, i18n.NewError(ctx, thmsgs.MsgConfigParamNotSet, "gamete")
	}
	queueLength := conf.QueueLength
	if queueLength <= 0 {
		queueLength = 1
	}
	db, err := openStore(ctx, conf.Path)
	if err != nil {
		return nil, err
	}
	n := &Node{
		conf:          conf,
		db:            db,
		store:         &dbReader{db: db},
		classes:       newClassRegistry(),
		queue:         make(chan *pendingRequest, queueLength),
		done:          make(chan struct{}),
		pending:       make(map[ledger.TransactionReference]*pendingRequest),
		pendingNonces: make(map[ledger.StorageReference]int64),
	}
	if err := n.initStore(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	n.bgCtx, n.cancelCtx = context.WithCancel(log.WithLogField(ctx, "node", conf.ChainID))
	go n.deliveryLoop()
	return n, nil
}

func hashOf(s string) ledger.TransactionReference {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(s))
	return ledger.NewTransactionReference(hash.Sum(nil))
}

// initStore creates the base jar, the manifest and the gamete the first time
// the store is opened, and loads their references afterwards
func (n *Node) initStore(ctx context.Context) error {
	state := newOverlay(n.store)
	var manifest storedObject
	found, err := state.getJSON(ctx, manifestKey, &manifest)
	if err != nil {
		return err
	}
	if found {
		var takamakaCode storedObject
		if _, err := state.getJSON(ctx, takamakaCodeKey, &takamakaCode); err != nil {
			return err
		}
		n.manifest, n.takamakaCode = manifest.Ref, takamakaCode.Ref.Transaction
		log.L(ctx).Infof("Opened store with manifest %s", n.manifest)
		return nil
	}

	n.takamakaCode = hashOf("takamakacode:" + n.conf.ChainID)
	initRef := hashOf("init:" + n.conf.ChainID)
	f := n.newFrame(ctx, state, ledger.StorageReference{}, initRef, n.takamakaCode, big.NewInt(2*gasPerObject))
	if err := state.putJSON(ctx, jarKey(n.takamakaCode), &storedJar{}); err != nil {
		return err
	}
	m, _ := f.New(ClassManifest, nil)
	gamete, _ := f.New(ClassGamete, nil)
	initAccount(gamete, n.conf.GameteIdentity)
	gamete.SetBigInt("balance", n.conf.InitialSupply)
	gamete.SetBigInt("balanceRed", n.conf.InitialRedSupply)
	m.Set("gamete", referenceTo(gamete))
	m.Set("chainId", ledger.StringOf(n.conf.ChainID))
	if err := f.flush(); err != nil {
		return err
	}
	n.manifest = m.Ref
	if err := state.putJSON(ctx, manifestKey, &storedObject{Ref: m.Ref}); err != nil {
		return err
	}
	if err := state.putJSON(ctx, takamakaCodeKey, &storedObject{Ref: ledger.StorageReference{Transaction: n.takamakaCode}}); err != nil {
		return err
	}
	log.L(ctx).Infof("Initialized store for chain '%s' with manifest %s and gamete %s", n.conf.ChainID, m.Ref, gamete.Ref)
	return state.commit(ctx, n.db, true)
}

func (n *Node) newFrame(ctx context.Context, state *overlay, caller ledger.StorageReference, ref, classpath ledger.TransactionReference, gasLimit *big.Int) *Frame {
	return &Frame{
		ctx:         ctx,
		n:           n,
		state:       state,
		caller:      caller,
		reference:   ref,
		classpath:   classpath,
		gasLimit:    new(big.Int).Set(gasLimit),
		gasConsumed: new(big.Int),
		objects:     make(map[ledger.StorageReference]*Object),
	}
}

// RegisterClass makes the code of a class available to transactions, as part of the base jar
func (n *Node) RegisterClass(ctx context.Context, c *Class) error {
	n.mux.Lock()
	defer n.mux.Unlock()
	return n.classes.register(ctx, c)
}

func (n *Node) GetManifest(_ context.Context) (*ledger.StorageReference, ledger.ErrorReason, error) {
	ref := n.manifest
	return &ref, "", nil
}

func (n *Node) GetTakamakaCode(_ context.Context) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	ref := n.takamakaCode
	return &ref, "", nil
}

func (n *Node) GetClassTag(ctx context.Context, ref ledger.StorageReference) (*ledger.ClassTag, ledger.ErrorReason, error) {
	var o Object
	found, err := newOverlay(n.store).getJSON(ctx, objectKey(ref), &o)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, ledger.ErrorReasonNotFound, i18n.NewError(ctx, thmsgs.MsgUnknownStorageReference, ref)
	}
	return &ledger.ClassTag{ClassName: o.Class, Jar: o.Jar}, "", nil
}

func (n *Node) GetResponse(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	state := newOverlay(n.store)
	var res ledger.TransactionResponse
	found, err := state.getJSON(ctx, responseKey(ref), &res)
	if err != nil {
		return nil, "", err
	}
	if found {
		return &res, "", nil
	}
	var rejection storedRejection
	found, err = state.getJSON(ctx, rejectedKey(ref), &rejection)
	if err != nil {
		return nil, "", err
	}
	if found {
		return nil, ledger.ErrorReasonRejected, &ledger.RejectedError{Cause: rejection.Cause, Message: rejection.Message}
	}
	return nil, ledger.ErrorReasonNotFound, i18n.NewError(ctx, thmsgs.MsgResponseNotFound, ref)
}

func (n *Node) GetRequest(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionRequest, ledger.ErrorReason, error) {
	var req ledger.TransactionRequest
	found, err := newOverlay(n.store).getJSON(ctx, requestKey(ref), &req)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, ledger.ErrorReasonNotFound, i18n.NewError(ctx, thmsgs.MsgRequestNotFound, ref)
	}
	return &req, "", nil
}

func (n *Node) PostTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	p, reason, err := n.admit(ctx, req)
	if err != nil {
		return nil, reason, err
	}
	return &p.ref, "", nil
}

func (n *Node) AddTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	p, reason, err := n.admit(ctx, req)
	if err != nil {
		return nil, reason, err
	}
	select {
	case <-p.delivered:
	case <-ctx.Done():
		return nil, "", i18n.NewError(ctx, i18n.MsgContextCanceled)
	case <-n.bgCtx.Done():
		return nil, "", i18n.NewError(ctx, thmsgs.MsgNodeClosed)
	}
	return n.GetResponse(ctx, p.ref)
}

func rejected(err *ledger.RejectedError) (*pendingRequest, ledger.ErrorReason, error) {
	return nil, ledger.ErrorReasonRejected, err
}

// admit checks a request against the current state and queues it for
// delivery. The nonce of the caller must follow the nonces of its requests
// that are already queued.
func (n *Node) admit(ctx context.Context, req *ledger.TransactionRequest) (*pendingRequest, ledger.ErrorReason, error) {
	if req.IsView() {
		return nil, ledger.ErrorReasonInvalidInputs, i18n.NewError(ctx, thmsgs.MsgNotATransactionRequest, req.Kind)
	}
	if err := req.Validate(ctx); err != nil {
		return rejected(ledger.NewRejectedError(ledger.CauseMalformedRequest, "%s", err))
	}
	ref := req.Reference()

	n.mux.Lock()
	defer n.mux.Unlock()
	if n.closed {
		return nil, "", i18n.NewError(ctx, thmsgs.MsgNodeClosed)
	}
	if req.ChainID != n.conf.ChainID {
		return rejected(ledger.NewRejectedError(ledger.CauseInvalidChainID, "expected '%s' but got '%s'", n.conf.ChainID, req.ChainID))
	}
	state := newOverlay(n.store)
	f := n.newFrame(ctx, state, req.Caller, ref, req.Classpath, req.GasLimit.Int())
	caller, rejection, err := n.loadCaller(f, req.Caller)
	if err != nil {
		return nil, "", err
	}
	if rejection != nil {
		return rejected(rejection)
	}
	if err := keys.VerifySignature(ctx, req.BytesWithoutSignature(), req.Signature, caller.Get("publicKey").Value); err != nil {
		return rejected(ledger.NewRejectedError(ledger.CauseInvalidSignature, "%s", err))
	}
	if rejection, err := n.checkCommon(ctx, state, req); err != nil {
		return nil, "", err
	} else if rejection != nil {
		return rejected(rejection)
	}
	if n.pending[ref] != nil {
		return rejected(ledger.NewRejectedError(ledger.CauseRepeatedRequest, "transaction %s is already queued", ref))
	}
	for _, key := range []string{responseKey(ref), rejectedKey(ref)} {
		if b, err := state.get(ctx, key); err != nil {
			return nil, "", err
		} else if b != nil {
			return rejected(ledger.NewRejectedError(ledger.CauseRepeatedRequest, "transaction %s was already delivered", ref))
		}
	}
	expected := new(big.Int).Add(caller.BigInt("nonce"), big.NewInt(n.pendingNonces[req.Caller]))
	if rejection := checkNonceAndFunds(req, caller, expected); rejection != nil {
		return rejected(rejection)
	}

	p := &pendingRequest{
		ref:       ref,
		req:       req,
		delivered: make(chan struct{}),
	}
	select {
	case n.queue <- p:
	default:
		return nil, "", i18n.NewError(ctx, thmsgs.MsgNodeQueueFull)
	}
	n.pending[ref] = p
	n.pendingNonces[req.Caller]++
	log.L(ctx).Debugf("Admitted %s request %s from %s with nonce %s", req.Kind, ref, req.Caller, req.Nonce.Int())
	return p, "", nil
}

// loadCaller returns the caller of a request, that must be an account with a public key
func (n *Node) loadCaller(f *Frame, ref ledger.StorageReference) (*Object, *ledger.RejectedError, error) {
	caller, err := f.Load(ref)
	var failure *Failure
	if errors.As(err, &failure) {
		return nil, ledger.NewRejectedError(ledger.CauseUnknownCaller, "unknown caller %s", ref), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !n.classes.isA(caller.Class, ClassExternallyOwnedAccount) || caller.Get("publicKey").Value == "" {
		return nil, ledger.NewRejectedError(ledger.CauseUnknownCaller, "caller %s is not an account", ref), nil
	}
	return caller, nil, nil
}

// checkCommon runs the checks shared by transactions and view calls
func (n *Node) checkCommon(ctx context.Context, state *overlay, req *ledger.TransactionRequest) (*ledger.RejectedError, error) {
	if req.GasLimit.Int().Cmp(n.conf.MaxGasPerTransaction) > 0 {
		return ledger.NewRejectedError(ledger.CauseGasLimitTooHigh, "the gas limit %s is above the maximum of %s", req.GasLimit.Int(), n.conf.MaxGasPerTransaction), nil
	}
	if !req.IsView() && req.GasPrice.Int().Cmp(n.conf.MinGasPrice) < 0 {
		return ledger.NewRejectedError(ledger.CauseGasPriceTooLow, "the gas price %s is below the minimum of %s", req.GasPrice.Int(), n.conf.MinGasPrice), nil
	}
	for _, jar := range append([]ledger.TransactionReference{req.Classpath}, req.Dependencies...) {
		b, err := state.get(ctx, jarKey(jar))
		if err != nil {
			return nil, err
		}
		if b == nil {
			return ledger.NewRejectedError(ledger.CauseUnknownClasspath, "unknown jar %s", jar), nil
		}
	}
	var formals []ledger.StorageType
	switch {
	case req.Constructor != nil:
		formals = req.Constructor.Formals
	case req.Method != nil:
		formals = req.Method.Formals
	}
	if req.Kind != ledger.RequestKindJarStore {
		return checkActuals(ctx, formals, req.Actuals), nil
	}
	return nil, nil
}

func gasCost(req *ledger.TransactionRequest) *big.Int {
	return new(big.Int).Mul(req.GasLimit.Int(), req.GasPrice.Int())
}

func checkNonceAndFunds(req *ledger.TransactionRequest, caller *Object, expected *big.Int) *ledger.RejectedError {
	if req.Nonce.Int().Cmp(expected) != 0 {
		return ledger.NewRejectedError(ledger.CauseIncorrectNonce, "expected %s but got %s", expected, req.Nonce.Int())
	}
	cost := gasCost(req)
	if balance := caller.BigInt("balance"); balance.Cmp(cost) < 0 {
		return ledger.NewRejectedError(ledger.CauseInsufficientFundsForGas, "the balance %s of %s cannot pay for %s", balance, req.Caller, cost)
	}
	return nil
}

func (n *Node) deliveryLoop() {
	defer close(n.done)
	ctx := log.WithLogField(n.bgCtx, "job", "delivery")
	for {
		select {
		case p := <-n.queue:
			n.deliverAndRelease(ctx, p)
		case <-ctx.Done():
			log.L(ctx).Debugf("Delivery loop stopped")
			return
		}
	}
}

func (n *Node) deliverAndRelease(ctx context.Context, p *pendingRequest) {
	n.mux.Lock()
	defer func() {
		delete(n.pending, p.ref)
		if n.pendingNonces[p.req.Caller]--; n.pendingNonces[p.req.Caller] <= 0 {
			delete(n.pendingNonces, p.req.Caller)
		}
		n.mux.Unlock()
		close(p.delivered)
	}()
	if err := n.deliver(ctx, p); err != nil {
		// the request stays without an outcome, and is polled for in vain
		log.L(ctx).Errorf("Failed to deliver transaction %s: %s", p.ref, err)
	}
}

// deliver runs a request and commits its outcome. The caller first pays for
// all the gas it allows, then is refunded the gas that was not consumed if the
// request succeeds. A failed request consumes all its gas and changes no
// other state.
func (n *Node) deliver(ctx context.Context, p *pendingRequest) error {
	req := p.req
	state := newOverlay(n.store)
	f := n.newFrame(ctx, state, req.Caller, p.ref, req.Classpath, req.GasLimit.Int())
	caller, rejection, err := n.loadCaller(f, req.Caller)
	if err != nil {
		return err
	}
	if rejection == nil {
		rejection = checkNonceAndFunds(req, caller, caller.BigInt("nonce"))
	}
	if rejection != nil {
		log.L(ctx).Debugf("Transaction %s rejected on delivery: %s", p.ref, rejection)
		if err := state.putJSON(ctx, rejectedKey(p.ref), &storedRejection{Cause: rejection.Cause, Message: rejection.Message}); err != nil {
			return err
		}
		return state.commit(ctx, n.db, false)
	}

	cost := gasCost(req)
	caller.SetBigInt("nonce", new(big.Int).Add(caller.BigInt("nonce"), big.NewInt(1)))
	caller.SetBigInt("balance", new(big.Int).Sub(caller.BigInt("balance"), cost))
	if err := f.flush(); err != nil {
		return err
	}

	res := &ledger.TransactionResponse{Reference: p.ref}
	exec := newOverlay(state)
	ef := n.newFrame(ctx, exec, req.Caller, p.ref, req.Classpath, req.GasLimit.Int())
	result, err := n.execute(ef, req)
	if err == nil {
		err = ef.flush()
	}
	if err == nil {
		exec.mergeInto(state)
		res.Status = ledger.TransactionStatusSucceeded
		res.Result = result
		res.GasConsumed = (*fftypes.FFBigInt)(new(big.Int).Set(ef.gasConsumed))
		refund := new(big.Int).Sub(req.GasLimit.Int(), ef.gasConsumed)
		refund.Mul(refund, req.GasPrice.Int())
		rf := n.newFrame(ctx, state, req.Caller, p.ref, req.Classpath, req.GasLimit.Int())
		if caller, err = rf.Load(req.Caller); err != nil {
			return err
		}
		caller.SetBigInt("balance", new(big.Int).Add(caller.BigInt("balance"), refund))
		if err := rf.flush(); err != nil {
			return err
		}
	} else {
		res.Status = ledger.TransactionStatusFailed
		res.Cause, res.Message = causeOf(err)
		res.GasConsumed = (*fftypes.FFBigInt)(new(big.Int).Set(req.GasLimit.Int()))
	}
	log.L(ctx).Debugf("Transaction %s %s (gas=%s)", p.ref, res.Status, res.GasConsumed.Int())

	if err := state.putJSON(ctx, requestKey(p.ref), req); err != nil {
		return err
	}
	if err := state.putJSON(ctx, responseKey(p.ref), res); err != nil {
		return err
	}
	return state.commit(ctx, n.db, false)
}

func causeOf(err error) (ledger.CauseTag, string) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Cause, failure.Message
	}
	return causeIllegalState, err.Error()
}

// execute runs the code of a request against the state of the frame
func (n *Node) execute(f *Frame, req *ledger.TransactionRequest) (*ledger.StorageValue, error) {
	if req.Kind == ledger.RequestKindJarStore {
		if err := f.Charge(gasPerCall + gasPerJarByte*int64(len(req.Jar))); err != nil {
			return nil, err
		}
		return nil, f.state.putJSON(f.ctx, jarKey(f.reference), &storedJar{Jar: req.Jar, Dependencies: req.Dependencies})
	}
	if err := f.Charge(gasPerCall + gasPerArgument*int64(len(req.Actuals))); err != nil {
		return nil, err
	}
	switch req.Kind {
	case ledger.RequestKindConstructorCall:
		o, err := f.Construct(req.Constructor.DefiningClass, req.Constructor, req.Actuals...)
		if err != nil {
			return nil, err
		}
		return referenceTo(o), nil
	case ledger.RequestKindInstanceMethodCall, ledger.RequestKindInstanceViewCall:
		receiver, err := f.Load(*req.Receiver)
		if err != nil {
			return nil, err
		}
		fn, err := n.classes.lookupMethod(receiver.Class, req.Method)
		if err != nil {
			return nil, err
		}
		v, err := fn(f, receiver, req.Actuals)
		return methodResult(req.Method, v, err)
	default:
		fn, err := n.classes.lookupStatic(req.Method)
		if err != nil {
			return nil, err
		}
		v, err := fn(f, nil, req.Actuals)
		return methodResult(req.Method, v, err)
	}
}

func methodResult(signature *ledger.MethodSignature, v *ledger.StorageValue, err error) (*ledger.StorageValue, error) {
	switch {
	case err != nil:
		return nil, err
	case signature.IsVoid():
		return nil, nil
	case v == nil:
		return nil, Fail(ledger.CauseNoSuchMethod, "%s is void", signature.Key())
	default:
		return v, nil
	}
}

// RunViewTransaction runs a view call against a throwaway copy of the state,
// so nothing it does is kept. Any object can be the caller of a view.
func (n *Node) RunViewTransaction(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	if !req.IsView() {
		return nil, ledger.ErrorReasonInvalidInputs, i18n.NewError(ctx, thmsgs.MsgNotAViewRequest, req.Kind)
	}
	if err := req.Validate(ctx); err != nil {
		return nil, ledger.ErrorReasonRejected, ledger.NewRejectedError(ledger.CauseMalformedRequest, "%s", err)
	}
	ref := req.Reference()

	n.mux.Lock()
	defer n.mux.Unlock()
	if n.closed {
		return nil, "", i18n.NewError(ctx, thmsgs.MsgNodeClosed)
	}
	state := newOverlay(n.store)
	f := n.newFrame(ctx, state, req.Caller, ref, req.Classpath, req.GasLimit.Int())
	var rejection *ledger.RejectedError
	_, err := f.Load(req.Caller)
	var failure *Failure
	if errors.As(err, &failure) {
		rejection, err = ledger.NewRejectedError(ledger.CauseUnknownCaller, "unknown caller %s", req.Caller), nil
	} else if err == nil {
		rejection, err = n.checkCommon(ctx, state, req)
	}
	if err != nil {
		return nil, "", err
	}
	if rejection != nil {
		return nil, ledger.ErrorReasonRejected, rejection
	}
	res := &ledger.TransactionResponse{Reference: ref}
	result, err := n.execute(f, req)
	if err != nil {
		res.Status = ledger.TransactionStatusFailed
		res.Cause, res.Message = causeOf(err)
	} else {
		res.Status = ledger.TransactionStatusSucceeded
		res.Result = result
	}
	res.GasConsumed = (*fftypes.FFBigInt)(f.gasConsumed)
	return res, "", nil
}

// Close stops delivery. Requests still queued never get an outcome, and
// callers waiting on them are released with an error.
func (n *Node) Close(ctx context.Context) {
	n.mux.Lock()
	if n.closed {
		n.mux.Unlock()
		return
	}
	n.closed = true
	n.mux.Unlock()

	n.cancelCtx()
	<-n.done
	if err := n.db.Close(); err != nil {
		log.L(ctx).Warnf("Error closing store: %s", err)
	}
	log.L(ctx).Infof("Node closed")
}
