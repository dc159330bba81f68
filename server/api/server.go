// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package api implements the http interface of the chart repository.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/publish"
)

var mon = monkit.Package()

// Config configures the http interface.
type Config struct {
	MaxArchiveSize int64 `help:"maximum size of an uploaded chart archive in bytes" default:"33554432"`
	SecureCookies  bool  `help:"mark session cookies as secure" default:"false"`
}

// Server serves the chart repository api.
type Server struct {
	log      *zap.Logger
	accounts *accounts.Service
	publish  *publish.Service
	config   Config

	handler http.Handler
}

// NewServer creates the api handlers.
func NewServer(log *zap.Logger, accounts *accounts.Service, publish *publish.Service, config Config) *Server {
	if config.MaxArchiveSize <= 0 {
		config.MaxArchiveSize = 32 << 20
	}

	server := &Server{
		log:      log,
		accounts: accounts,
		publish:  publish,
		config:   config,
	}

	router := mux.NewRouter()
	router.HandleFunc("/login", server.login).Methods(http.MethodPost)
	router.HandleFunc("/logout", server.logout).Methods(http.MethodPost)

	router.HandleFunc("/chart", server.listCharts).Methods(http.MethodGet)
	router.HandleFunc("/chart/{name}", server.withAuth(server.removeChart)).Methods(http.MethodDelete)

	router.HandleFunc("/release", server.withAuth(server.publishRelease)).Methods(http.MethodPost)
	router.HandleFunc("/release", server.listReleases).Methods(http.MethodGet)
	router.HandleFunc("/release/{filename}", server.downloadRelease).Methods(http.MethodGet)

	router.HandleFunc("/status", server.status).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.errorResponse(w, r, &ErrorResponse{
			Code:        http.StatusNotFound,
			Name:        http.StatusText(http.StatusNotFound),
			Description: "The requested URL was not found on the server.",
		})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.errorResponse(w, r, &ErrorResponse{
			Code:        http.StatusMethodNotAllowed,
			Name:        http.StatusText(http.StatusMethodNotAllowed),
			Description: "The method is not allowed for the requested URL.",
		})
	})

	server.handler = router
	return server
}

// ServeHTTP implements http.Handler.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.handler.ServeHTTP(w, r)
}

func (server *Server) jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		server.log.Error("failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		server.log.Debug("failed to write response", zap.Error(err))
	}
}

func (server *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	response := newErrorResponse(err)

	if response.Code >= http.StatusInternalServerError {
		server.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		server.log.Debug("request rejected", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}

	server.jsonResponse(w, response.Code, response)
}
