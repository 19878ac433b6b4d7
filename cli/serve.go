package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/handlers"
	"github.com/kscout/runboard-api/jobs"
	"github.com/kscout/runboard-api/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var (
		seedPath  string
		recompute bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the HTTP API until interrupted.

Storage indexes are created in the background on start. With --seed the fixture
is loaded before the server starts, which is mostly useful with the memory store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rootLogger().GetChild("serve")

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.Close()

			// {{{1 Seed
			if len(seedPath) > 0 {
				f, err := loadFixture(seedPath)
				if err != nil {
					return err
				}

				result, err := seed(a.Ctx, *f, a.Users, a.Submissions, time.Now())
				if err != nil {
					return err
				}

				logger.Infof("seeded %d users and %d submissions", len(result.Users),
					result.Submissions)
			}

			// {{{1 Metrics
			metricsRecorders := metrics.NewMetrics(prometheus.DefaultRegisterer)

			// {{{1 Job runner
			jobRunner := jobs.JobRunner{
				Ctx:         a.Ctx,
				Logger:      logger.GetChild("jobs"),
				Metrics:     metricsRecorders,
				Submissions: a.Submissions,
				Indexers:    a.Indexers,
			}
			jobRunner.Init()

			jobRunnerDone := make(chan struct{})
			go func() {
				jobRunner.Run()
				close(jobRunnerDone)
			}()

			go jobRunner.Submit(jobs.JobStartRequest{Type: jobs.JobTypeEnsureIndexes})
			if recompute {
				go jobRunner.Submit(jobs.JobStartRequest{Type: jobs.JobTypeRecomputeStatus})
			}

			// {{{1 Router
			baseHandler := handlers.BaseHandler{
				Ctx:     a.Ctx,
				Logger:  logger.GetChild("handlers"),
				Cfg:     a.Cfg,
				Metrics: metricsRecorders,
				Verifier: auth.Verifier{
					Secret: []byte(a.Cfg.JWTSecret),
					Users:  a.Users,
				},
				Submissions: a.service(),
				Reports:     a.engine(),
			}

			// {{{1 Start HTTP server
			server := http.Server{
				Addr:    a.Cfg.HTTPAddr,
				Handler: handlers.NewRouter(baseHandler, prometheus.DefaultGatherer),
			}

			serveErr := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serveErr <- fmt.Errorf("failed to serve: %s", err.Error())
				}
				close(serveErr)
			}()

			logger.Infof("started server on %s", a.Cfg.HTTPAddr)

			select {
			case <-a.Ctx.Done():
			case err := <-serveErr:
				if err != nil {
					return err
				}
			}

			if err := server.Shutdown(context.Background()); err != nil {
				return fmt.Errorf("failed to shutdown server: %s", err.Error())
			}

			<-jobRunnerDone

			logger.Info("done")

			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML fixture to load before serving")
	cmd.Flags().BoolVar(&recompute, "recompute", false,
		"Repair stale submission statuses in the background on start")

	return cmd
}
