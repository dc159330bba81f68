// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/chart"
	"github.com/swingcharts/swing/publish"
)

func TestNewErrorResponse(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{chart.ErrMissingValues, http.StatusBadRequest},
		{chart.ErrEmptyName, http.StatusBadRequest},
		{publish.ErrInvalidRequest.New("bad filename"), http.StatusBadRequest},
		{accounts.ErrUnauthorized.New("nope"), http.StatusUnauthorized},
		{catalog.ErrOwnership.New("owned by someone else"), http.StatusForbidden},
		{accounts.ErrInactive.New("inactive"), http.StatusForbidden},
		{catalog.ErrReleaseNotFound.New("1.0"), http.StatusNotFound},
		{catalog.ErrDuplicateRelease.New("version 1.0 is already published"), http.StatusConflict},
		{catalog.ErrPackageChanged.New("new release"), http.StatusConflict},
		{accounts.ErrRateLimited.New("slow down"), http.StatusTooManyRequests},
		{publish.ErrBlobMissing.New("gone"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		response := newErrorResponse(tc.err)
		require.Equal(t, tc.status, response.Code, tc.err.Error())
		require.Equal(t, http.StatusText(tc.status), response.Name)
	}

	internal := newErrorResponse(errors.New("connection refused to 10.0.0.1"))
	require.NotContains(t, internal.Description, "10.0.0.1")

	duplicate := newErrorResponse(catalog.ErrDuplicateRelease.New("version 1.0 is already published"))
	require.Contains(t, duplicate.Description, "version 1.0 is already published")
}
