// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package server wires the chart repository services into a runnable peer.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/blobstore"
	"github.com/swingcharts/swing/blobstore/filestore"
	"github.com/swingcharts/swing/blobstore/redisstore"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/publish"
	"github.com/swingcharts/swing/server/api"
)

var (
	mon = monkit.Package()

	// Error is the default error class for the server peer.
	Error = errs.Class("server")
	// ErrConfig is returned when the configuration is invalid.
	ErrConfig = errs.Class("config")
)

// DB is the master database for the server.
//
// architecture: Master Database
type DB interface {
	// MigrateToLatest initializes or updates the database schema.
	MigrateToLatest(ctx context.Context) error
	// CheckVersion verifies the schema is up to date.
	CheckVersion(ctx context.Context) error
	// Catalog returns the package and release tables.
	Catalog() catalog.DB
	// Accounts returns the user and session tables.
	Accounts() accounts.DB
	// Close closes the database.
	Close() error
}

// Storage types.
const (
	StorageLocal = "local"
	StorageRedis = "redis"
)

// StorageConfig selects and configures the single archive backend.
type StorageConfig struct {
	Type  string `help:"archive storage backend, 'local' or 'redis'" default:"local"`
	Local filestore.Config
	Redis redisstore.Config
}

// InitialUserConfig describes a user created on startup when missing.
type InitialUserConfig struct {
	Email    string `help:"email of a user to create on startup" default:""`
	Password string `help:"password of the startup user" default:"" setup:"true"`
}

// Config is the global configuration for the chart repository server.
type Config struct {
	Address         string        `help:"address to listen on" default:":5000"`
	Database        string        `help:"database url, postgres://... or sqlite3://<path>" default:"sqlite3://$CONFDIR/swing.db"`
	ShutdownTimeout time.Duration `help:"time to wait for open requests on shutdown" default:"10s"`

	Storage     StorageConfig
	Publish     publish.Config
	API         api.Config
	Accounts    accounts.Config
	InitialUser InitialUserConfig
}

// Validate checks the configuration for errors.
func (config *Config) Validate() error {
	var group errs.Group
	if config.Database == "" {
		group.Add(ErrConfig.New("database url is required"))
	}
	if config.Address == "" {
		group.Add(ErrConfig.New("address is required"))
	}

	switch config.Storage.Type {
	case StorageLocal:
		if config.Storage.Local.Dir == "" {
			group.Add(ErrConfig.New("storage.local.dir is required for local storage"))
		}
	case StorageRedis:
		if config.Storage.Redis.URL == "" {
			group.Add(ErrConfig.New("storage.redis.url is required for redis storage"))
		}
	default:
		group.Add(ErrConfig.New("unsupported storage type %q", config.Storage.Type))
	}

	if config.InitialUser.Email != "" && config.InitialUser.Password == "" {
		group.Add(ErrConfig.New("initial-user.password is required when initial-user.email is set"))
	}
	return group.Err()
}

// OpenBlobs opens the archive backend selected by config.
func OpenBlobs(ctx context.Context, log *zap.Logger, config StorageConfig) (_ blobstore.Blobs, err error) {
	defer mon.Task()(&ctx)(&err)

	switch config.Type {
	case StorageLocal:
		store, err := filestore.NewAt(log.Named("filestore"), config.Local.Dir, config.Local)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		return store, nil
	case StorageRedis:
		store, err := redisstore.Open(ctx, log.Named("redisstore"), config.Redis)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		return store, nil
	default:
		return nil, ErrConfig.New("unsupported storage type %q", config.Type)
	}
}

// garbageCollector is implemented by stores that leave temporary data behind.
type garbageCollector interface {
	GarbageCollect(ctx context.Context) error
}

// Peer is the chart repository server.
//
// architecture: Peer
type Peer struct {
	Log    *zap.Logger
	DB     DB
	Blobs  blobstore.Blobs
	config Config

	Accounts struct {
		Limiter *accounts.Limiter
		Service *accounts.Service
	}

	Catalog struct {
		Service *catalog.Service
	}

	Publish struct {
		Service *publish.Service
	}

	Server struct {
		API      *api.Server
		Endpoint http.Server
		Listener net.Listener
	}
}

// New creates a new server peer listening on config.Address.
func New(log *zap.Logger, db DB, blobs blobstore.Blobs, config Config) (_ *Peer, err error) {
	peer := &Peer{
		Log:    log,
		DB:     db,
		Blobs:  blobs,
		config: config,
	}

	{ // setup accounts
		peer.Accounts.Limiter = accounts.NewLimiter(config.Accounts.Limiter)
		peer.Accounts.Service = accounts.NewService(
			peer.Log.Named("accounts"),
			peer.DB.Accounts(),
			peer.Accounts.Limiter,
			config.Accounts,
		)
	}

	{ // setup catalog and publication
		peer.Catalog.Service = catalog.NewService(peer.Log.Named("catalog"), peer.DB.Catalog(), peer.Blobs)
		peer.Publish.Service = publish.NewService(
			peer.Log.Named("publish"),
			peer.Catalog.Service,
			peer.Blobs,
			config.Publish,
		)
	}

	{ // setup api
		peer.Server.API = api.NewServer(
			peer.Log.Named("api"),
			peer.Accounts.Service,
			peer.Publish.Service,
			config.API,
		)
		peer.Server.Endpoint = http.Server{
			Handler:           peer.Server.API,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          zap.NewStdLog(peer.Log.Named("http")),
		}

		peer.Server.Listener, err = net.Listen("tcp", config.Address)
		if err != nil {
			return nil, Error.Wrap(err)
		}
	}

	return peer, nil
}

// Run prepares the databases and serves requests until ctx is canceled.
func (peer *Peer) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if initial := peer.config.InitialUser; initial.Email != "" {
		if err := peer.Accounts.Service.EnsureInitialUser(ctx, initial.Email, initial.Password); err != nil {
			return Error.Wrap(err)
		}
	}

	if gc, ok := peer.Blobs.(garbageCollector); ok {
		if err := gc.GarbageCollect(ctx); err != nil {
			peer.Log.Warn("unable to remove temporary archives", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return peer.Accounts.Limiter.Run(ctx)
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), peer.config.ShutdownTimeout)
		defer cancelShutdown()
		return Error.Wrap(peer.Server.Endpoint.Shutdown(shutdownCtx))
	})
	group.Go(func() error {
		defer cancel()
		peer.Log.Info("Chart repository started.", zap.String("Address", peer.Addr()))
		err := peer.Server.Endpoint.Serve(peer.Server.Listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return Error.Wrap(err)
	})

	return group.Wait()
}

// Close closes all the resources.
func (peer *Peer) Close() error {
	return errs.Combine(
		peer.Server.Endpoint.Close(),
		peer.Blobs.Close(),
		peer.DB.Close(),
	)
}

// Addr returns the address the peer is listening on.
func (peer *Peer) Addr() string { return peer.Server.Listener.Addr().String() }

// URL returns the base url of the api.
func (peer *Peer) URL() string { return "http://" + peer.Addr() }
