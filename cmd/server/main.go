package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/api"
	"github.com/dvloznov/mf-dashboard/internal/api/cache"
	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/jobs"
	"github.com/dvloznov/mf-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/pipeline"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

func main() {
	log := logger.New()

	serverCfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid server configuration")
	}
	port := flag.String("port", serverCfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	crawlerCfg, err := config.LoadCrawler()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid crawler configuration")
	}

	if serverCfg.RevalidationToken == "" {
		log.Warn().Msg("REVALIDATION_TOKEN not set - /api/revalidate will reject every request")
	}
	if serverCfg.APIToken == "" {
		log.Warn().Msg("API_TOKEN not set - crawl endpoints are unauthenticated")
	}

	ctx := logger.WithContext(context.Background(), log)

	dsn, err := config.DatabaseURL()
	if err != nil {
		log.Fatal().Err(err).Msg("Database not configured")
	}
	repo, err := store.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer repo.Close()

	deps, cleanup, err := pipeline.NewDeps(ctx, crawlerCfg, repo, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up crawl dependencies")
	}
	defer cleanup()

	// The queue runs a single worker, so crawls never overlap.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(10, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, crawlJobHandler(deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start crawl worker")
	}

	handler := api.NewRouter(api.Config{
		RevalidationToken: serverCfg.RevalidationToken,
		APIToken:          serverCfg.APIToken,
		Groups:            repo,
		Cache:             cache.New(serverCfg.CacheTTL),
		Publisher:         jobQueue,
		JobStore:          jobStore,
		Log:               log,
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Dur("cache_ttl", serverCfg.CacheTTL).Msg("Starting dashboard server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// An in-flight crawl gets the shutdown window to finish before it is cancelled.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping crawl worker")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// crawlJobHandler runs one queued crawl and records its run id on the job.
func crawlJobHandler(deps pipeline.Deps) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.CrawlJob) error {
		mode, ok := pipeline.ParseMode(job.Mode)
		if !ok {
			return fmt.Errorf("crawlJobHandler: unknown mode %q", job.Mode)
		}

		state, err := pipeline.Crawl(ctx, deps, pipeline.Options{
			Mode:          mode,
			SkipRefresh:   job.SkipRefresh,
			UseStoredAuth: true,
		})
		if state != nil {
			job.RunID = state.RunID
		}
		return err
	}
}
