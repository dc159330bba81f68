// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/publish"
)

// listCharts returns charts matching the optional query.
func (server *Server) listCharts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	packages, err := server.publish.Packages(ctx, r.URL.Query().Get("query"))
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	server.jsonResponse(w, http.StatusOK, packages)
}

// removeChart removes a chart, or a single release when the version is given.
func (server *Server) removeChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	user, _ := userFromContext(ctx)
	name := mux.Vars(r)["name"]

	if version := r.URL.Query().Get("version"); version != "" {
		var release publish.ReleaseInfo
		release, err = server.publish.RemoveRelease(ctx, user.ID, name, version)
		if err != nil {
			server.errorResponse(w, r, err)
			return
		}
		server.jsonResponse(w, http.StatusOK, release)
		return
	}

	pkg, err := server.publish.RemovePackage(ctx, user.ID, name)
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	server.jsonResponse(w, http.StatusOK, pkg)
}

// publishRelease publishes the archive uploaded in the `chart` form field.
func (server *Server) publishRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	user, _ := userFromContext(ctx)

	// multipart framing adds to the archive size.
	r.Body = http.MaxBytesReader(w, r.Body, server.config.MaxArchiveSize+1<<20)
	if err = r.ParseMultipartForm(server.config.MaxArchiveSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = ErrBadRequest.New("the archive exceeds the maximum size of %d bytes", server.config.MaxArchiveSize)
		} else {
			err = ErrBadRequest.New("the request is not a valid multipart form")
		}
		server.errorResponse(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("chart")
	if err != nil || header.Filename == "" {
		err = ErrBadRequest.New("the archived chart was not provided")
		server.errorResponse(w, r, err)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > server.config.MaxArchiveSize {
		err = ErrBadRequest.New("the archive exceeds the maximum size of %d bytes", server.config.MaxArchiveSize)
		server.errorResponse(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}

	release, err := server.publish.Publish(ctx, user.ID, publish.Upload{
		Filename: header.Filename,
		Data:     data,
		Notes:    r.FormValue("notes"),
	})
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	server.jsonResponse(w, http.StatusOK, release)
}

// listReleases returns the releases of a chart, newest version first.
func (server *Server) listReleases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	releases, err := server.publish.Releases(ctx, r.URL.Query().Get("chart"))
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	server.jsonResponse(w, http.StatusOK, releases)
}

// downloadRelease sends the archive of a release as an attachment.
func (server *Server) downloadRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	download, err := server.publish.Download(ctx, mux.Vars(r)["filename"])
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	defer func() {
		if closeErr := download.Blob.Close(); closeErr != nil {
			server.log.Debug("failed to close archive", zap.Error(closeErr))
		}
	}()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	http.ServeContent(w, r, download.Filename, time.Time{}, download.Blob)
}

type serverStatus struct {
	Status string `json:"status"`
	Charts int64  `json:"charts"`
}

// status reports that the server is up together with the number of charts.
func (server *Server) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	charts, err := server.publish.Status(ctx)
	if err != nil {
		server.errorResponse(w, r, err)
		return
	}
	server.jsonResponse(w, http.StatusOK, serverStatus{Status: "ok", Charts: charts})
}
