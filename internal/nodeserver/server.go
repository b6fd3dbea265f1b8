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

package nodeserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hyperledger/firefly-common/pkg/httpserver"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a ledger.Node over REST, so the remote and cluster
// backends of another harness can submit to it
type Server struct {
	ctx           context.Context
	cancelCtx     func()
	node          ledger.Node
	metrics       metrics.Metrics
	apiServer     httpserver.HTTPServer
	apiServerDone chan error
	started       bool
}

func NewServer(ctx context.Context, node ledger.Node, mm metrics.Metrics) (s *Server, err error) {
	s = &Server{
		node:          node,
		metrics:       mm,
		apiServerDone: make(chan error),
	}
	s.ctx, s.cancelCtx = context.WithCancel(ctx)
	s.apiServer, err = httpserver.NewHTTPServer(ctx, "api", s.router(), s.apiServerDone, thconfig.APIConfig, thconfig.CorsConfig)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	if s.metrics.IsMetricsEnabled() {
		r.Use(metrics.GetNodeServerInstrumentation().Middleware)
		r.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}
	r.Path("/manifest").Methods(http.MethodGet).Handler(s.handler(s.getManifest))
	r.Path("/takamakacode").Methods(http.MethodGet).Handler(s.handler(s.getTakamakaCode))
	r.Path("/classtags/{ref}").Methods(http.MethodGet).Handler(s.handler(s.getClassTag))
	r.Path("/transactions/add").Methods(http.MethodPost).Handler(s.handler(s.addTransaction))
	r.Path("/transactions/post").Methods(http.MethodPost).Handler(s.handler(s.postTransaction))
	r.Path("/requests/{ref}").Methods(http.MethodGet).Handler(s.handler(s.getRequest))
	r.Path("/responses/{ref}").Methods(http.MethodGet).Handler(s.handler(s.getResponse))
	r.Path("/views/run").Methods(http.MethodPost).Handler(s.handler(s.runView))
	r.NotFoundHandler = s.handler(func(r *http.Request) (interface{}, ledger.ErrorReason, error) {
		return nil, ledger.ErrorReasonNotFound, i18n.NewError(r.Context(), i18n.Msg404NotFound)
	})
	return r
}

func (s *Server) Start() error {
	go s.runAPIServer()
	s.started = true
	return nil
}

func (s *Server) runAPIServer() {
	s.apiServer.ServeHTTP(s.ctx)
}

// WaitStop blocks until the server has stopped, returning the error it stopped with
func (s *Server) WaitStop() error {
	err := <-s.apiServerDone
	s.started = false
	return err
}

func (s *Server) Close() {
	s.cancelCtx()
	if s.started {
		s.started = false
		<-s.apiServerDone
	}
}

type handlerFunc func(r *http.Request) (interface{}, ledger.ErrorReason, error)

// statusFor maps the reason a node gave for an error onto an HTTP status.
// The client maps it back using the reason in the body, not the status.
func statusFor(reason ledger.ErrorReason, err error) int {
	switch reason {
	case ledger.ErrorReasonInvalidInputs:
		return http.StatusBadRequest
	case ledger.ErrorReasonRejected:
		return http.StatusUnprocessableEntity
	case ledger.ErrorReasonNotFound:
		return http.StatusNotFound
	case ledger.ErrorReasonTimeout:
		return http.StatusRequestTimeout
	}
	var ffe i18n.FFError
	if errors.As(err, &ffe) && ffe.HTTPStatus() >= 400 {
		return ffe.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func (s *Server) handler(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithLogField(r.Context(), "route", r.URL.Path)
		r = r.WithContext(ctx)
		statusCode := http.StatusOK
		resBody, reason, err := fn(r)
		if err != nil {
			statusCode = statusFor(reason, err)
			if reason == ledger.ErrorReasonRejected || reason == ledger.ErrorReasonNotFound {
				log.L(ctx).Debugf("Request failed reason=%s: %s", reason, err)
			} else {
				log.L(ctx).Errorf("Request failed reason=%s: %s", reason, err)
			}
			resBody = &ledger.ErrorResponse{Reason: reason, Error: err.Error()}
		}
		w.Header().Set("Content-Type", "application/json")
		resBytes, _ := json.Marshal(&resBody)
		w.Header().Set("Content-Length", strconv.FormatInt(int64(len(resBytes)), 10))
		w.WriteHeader(statusCode)
		_, _ = w.Write(resBytes)
	})
}

func decodeRequest(r *http.Request) (*ledger.TransactionRequest, ledger.ErrorReason, error) {
	var req *ledger.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req == nil {
		msg := "empty body"
		if err != nil {
			msg = err.Error()
		}
		return nil, ledger.ErrorReasonInvalidInputs, i18n.NewError(r.Context(), thmsgs.MsgInvalidRequestErr, r.URL.Path, msg)
	}
	return req, "", nil
}

func (s *Server) getManifest(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	return s.node.GetManifest(r.Context())
}

func (s *Server) getTakamakaCode(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	return s.node.GetTakamakaCode(r.Context())
}

func (s *Server) getClassTag(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	ref, err := ledger.ParseStorageReference(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		return nil, ledger.ErrorReasonInvalidInputs, err
	}
	return s.node.GetClassTag(r.Context(), ref)
}

func (s *Server) addTransaction(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	req, reason, err := decodeRequest(r)
	if err != nil {
		return nil, reason, err
	}
	return s.node.AddTransaction(r.Context(), req)
}

func (s *Server) postTransaction(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	req, reason, err := decodeRequest(r)
	if err != nil {
		return nil, reason, err
	}
	return s.node.PostTransaction(r.Context(), req)
}

func (s *Server) getRequest(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	ref, err := ledger.ParseTransactionReference(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		return nil, ledger.ErrorReasonInvalidInputs, err
	}
	return s.node.GetRequest(r.Context(), ref)
}

func (s *Server) getResponse(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	ref, err := ledger.ParseTransactionReference(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		return nil, ledger.ErrorReasonInvalidInputs, err
	}
	return s.node.GetResponse(r.Context(), ref)
}

func (s *Server) runView(r *http.Request) (interface{}, ledger.ErrorReason, error) {
	req, reason, err := decodeRequest(r)
	if err != nil {
		return nil, reason, err
	}
	return s.node.RunViewTransaction(r.Context(), req)
}
