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

package remote

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/ffresty"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// Node is a ledger.Node reached over REST, served by another harness's node server
type Node struct {
	client *resty.Client
}

func New(ctx context.Context, conf config.Section) (*Node, error) {
	client, err := ffresty.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Node{client: client}, nil
}

// NewWithURL builds a client from the shared settings in conf, for the node at url
func NewWithURL(ctx context.Context, conf config.Section, url string) (*Node, error) {
	n, err := New(ctx, conf)
	if err != nil {
		return nil, err
	}
	n.client.SetBaseURL(url)
	return n, nil
}

func (n *Node) URL() string {
	return n.client.BaseURL
}

func (n *Node) invoke(ctx context.Context, req *resty.Request, method, path string, output interface{}) (ledger.ErrorReason, error) {
	var errRes ledger.ErrorResponse
	res, err := req.
		SetContext(ctx).
		SetResult(output).
		SetError(&errRes).
		Execute(method, path)
	if err != nil {
		return "", i18n.WrapError(ctx, err, thmsgs.MsgNodeRequestFailed, n.client.BaseURL)
	}
	if !strings.Contains(res.Header().Get("Content-Type"), "application/json") {
		return "", i18n.NewError(ctx, thmsgs.MsgNodeInvalidContentType, res.StatusCode(), res.Header().Get("Content-Type"))
	}
	if res.IsError() {
		log.L(ctx).Debugf("%s %s failed status=%d reason=%s: %s", method, path, res.StatusCode(), errRes.Reason, errRes.Error)
		if errRes.Reason == ledger.ErrorReasonRejected {
			return errRes.Reason, ledger.ParseRejectedError(errRes.Error)
		}
		return errRes.Reason, i18n.NewError(ctx, thmsgs.MsgNodeError, res.StatusCode(), errRes.Reason, errRes.Error)
	}
	return "", nil
}

func (n *Node) GetManifest(ctx context.Context) (*ledger.StorageReference, ledger.ErrorReason, error) {
	var ref ledger.StorageReference
	reason, err := n.invoke(ctx, n.client.R(), http.MethodGet, "/manifest", &ref)
	if err != nil {
		return nil, reason, err
	}
	return &ref, "", nil
}

func (n *Node) GetTakamakaCode(ctx context.Context) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	var ref ledger.TransactionReference
	reason, err := n.invoke(ctx, n.client.R(), http.MethodGet, "/takamakacode", &ref)
	if err != nil {
		return nil, reason, err
	}
	return &ref, "", nil
}

func (n *Node) GetClassTag(ctx context.Context, ref ledger.StorageReference) (*ledger.ClassTag, ledger.ErrorReason, error) {
	var tag ledger.ClassTag
	req := n.client.R().SetPathParam("ref", ref.String())
	reason, err := n.invoke(ctx, req, http.MethodGet, "/classtags/{ref}", &tag)
	if err != nil {
		return nil, reason, err
	}
	return &tag, "", nil
}

func (n *Node) AddTransaction(ctx context.Context, tx *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	var res ledger.TransactionResponse
	reason, err := n.invoke(ctx, n.client.R().SetBody(tx), http.MethodPost, "/transactions/add", &res)
	if err != nil {
		return nil, reason, err
	}
	return &res, "", nil
}

func (n *Node) PostTransaction(ctx context.Context, tx *ledger.TransactionRequest) (*ledger.TransactionReference, ledger.ErrorReason, error) {
	var ref ledger.TransactionReference
	reason, err := n.invoke(ctx, n.client.R().SetBody(tx), http.MethodPost, "/transactions/post", &ref)
	if err != nil {
		return nil, reason, err
	}
	return &ref, "", nil
}

func (n *Node) GetRequest(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionRequest, ledger.ErrorReason, error) {
	var tx ledger.TransactionRequest
	req := n.client.R().SetPathParam("ref", ref.String())
	reason, err := n.invoke(ctx, req, http.MethodGet, "/requests/{ref}", &tx)
	if err != nil {
		return nil, reason, err
	}
	return &tx, "", nil
}

func (n *Node) GetResponse(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	var res ledger.TransactionResponse
	req := n.client.R().SetPathParam("ref", ref.String())
	reason, err := n.invoke(ctx, req, http.MethodGet, "/responses/{ref}", &res)
	if err != nil {
		return nil, reason, err
	}
	return &res, "", nil
}

func (n *Node) RunViewTransaction(ctx context.Context, tx *ledger.TransactionRequest) (*ledger.TransactionResponse, ledger.ErrorReason, error) {
	var res ledger.TransactionResponse
	reason, err := n.invoke(ctx, n.client.R().SetBody(tx), http.MethodPost, "/views/run", &res)
	if err != nil {
		return nil, reason, err
	}
	return &res, "", nil
}

// Close has nothing to release: the remote node outlives its clients
func (n *Node) Close(_ context.Context) {}
