// Package cli implements the runboard-api command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kscout/runboard-api/config"
	"github.com/kscout/runboard-api/jobs"
	"github.com/kscout/runboard-api/reports"
	"github.com/kscout/runboard-api/scope"
	"github.com/kscout/runboard-api/store"
	"github.com/kscout/runboard-api/submissions"

	"github.com/Noah-Huppert/golog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// app holds the dependencies every command shares
type app struct {
	// Ctx is canceled when the command should stop
	Ctx context.Context

	// Logger
	Logger golog.Logger

	// Cfg is the application configuration
	Cfg *config.Config

	// Location is the server time zone
	Location *time.Location

	// Submissions is the submission store
	Submissions store.SubmissionStore

	// Users is the user directory
	Users store.UserDirectory

	// Indexers create storage indexes
	Indexers []jobs.Indexer

	// mDb is the MongoDB client, nil when data is kept in memory
	mDb *mongo.Client
}

// newApp loads configuration and connects to the configured store
func newApp(ctx context.Context, logger golog.Logger) (*app, error) {
	// {{{1 Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %s", err.Error())
	}

	cfgStr, err := cfg.String()
	if err != nil {
		return nil, fmt.Errorf("failed to get log safe config: %s", err.Error())
	}
	logger.Debugf("loaded configuration: %s", cfgStr)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		Ctx:      ctx,
		Logger:   logger,
		Cfg:      cfg,
		Location: loc,
	}

	// {{{1 Store
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Infof("keeping data in memory, it will be lost on exit")

		a.Submissions = store.NewMemorySubmissions()
		a.Users = store.NewMemoryUsers()

		return a, nil
	}

	// {{{2 Build connection options
	mDbConnOpts := options.Client()
	mDbConnOpts.SetAuth(options.Credential{
		Username: cfg.DbUser,
		Password: cfg.DbPassword,
	})
	mDbConnOpts.SetHosts([]string{
		fmt.Sprintf("%s:%d", cfg.DbHost, cfg.DbPort),
	})

	if err = mDbConnOpts.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate database connection options: %s", err.Error())
	}

	// {{{2 Connect
	mDb, err := mongo.Connect(ctx, mDbConnOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", err.Error())
	}

	if err := mDb.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to test database connection: %s", err.Error())
	}

	db := mDb.Database(cfg.DbName)
	submissionsStore := store.MongoSubmissions{Coll: db.Collection(store.SubmissionsCollection)}
	usersStore := store.MongoUsers{Coll: db.Collection(store.UsersCollection)}

	a.mDb = mDb
	a.Submissions = submissionsStore
	a.Users = usersStore
	a.Indexers = []jobs.Indexer{submissionsStore, usersStore}

	return a, nil
}

// Close disconnects from the database
func (a *app) Close() {
	if a.mDb == nil {
		return
	}

	if err := a.mDb.Disconnect(context.Background()); err != nil {
		a.Logger.Errorf("failed to disconnect from database: %s", err.Error())
	}
}

// resolver returns the scope resolver over the app's users
func (a *app) resolver() scope.Resolver {
	return scope.Resolver{Users: a.Users}
}

// service returns the submission service
func (a *app) service() submissions.Service {
	return submissions.Service{
		Submissions: a.Submissions,
		Users:       a.Users,
		Scope:       a.resolver(),
	}
}

// engine returns the report engine
func (a *app) engine() reports.Engine {
	return reports.Engine{
		Submissions: a.Submissions,
		Scope:       a.resolver(),
		Location:    a.Location,
	}
}
