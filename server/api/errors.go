// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package api

import (
	"errors"
	"net/http"

	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/chart"
	"github.com/swingcharts/swing/publish"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (e *ErrorResponse) Error() string { return e.Description }

// ErrBadRequest is the class of request errors detected by the handlers.
var ErrBadRequest = errs.Class("bad request")

// classify returns the http status for err.
func classify(err error) int {
	switch {
	case ErrBadRequest.Has(err),
		publish.ErrInvalidRequest.Has(err),
		chart.IsValidationError(err):
		return http.StatusBadRequest
	case accounts.ErrUnauthorized.Has(err):
		return http.StatusUnauthorized
	case catalog.ErrOwnership.Has(err),
		accounts.ErrInactive.Has(err):
		return http.StatusForbidden
	case catalog.ErrPackageNotFound.Has(err),
		catalog.ErrReleaseNotFound.Has(err),
		accounts.ErrUserNotFound.Has(err):
		return http.StatusNotFound
	case catalog.ErrDuplicateRelease.Has(err),
		catalog.ErrPackageChanged.Has(err):
		return http.StatusConflict
	case accounts.ErrRateLimited.Has(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// newErrorResponse converts err into the response sent to clients.
// Internal failures are not described to the client.
func newErrorResponse(err error) *ErrorResponse {
	var response *ErrorResponse
	if errors.As(err, &response) {
		return response
	}

	status := classify(err)
	description := err.Error()
	if status == http.StatusInternalServerError {
		switch {
		case publish.ErrBlobMissing.Has(err):
			description = "The release could not be loaded from the server storage."
		case publish.ErrStorageWrite.Has(err):
			description = "The release archive could not be stored."
		default:
			description = "The server encountered an internal error."
		}
	}

	return &ErrorResponse{
		Code:        status,
		Name:        http.StatusText(status),
		Description: description,
	}
}
