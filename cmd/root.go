package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/maxaizer/cv-extractor/internal/repositories"
	"github.com/maxaizer/cv-extractor/internal/services"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const app = "cv-extractor"

func newRootCmd() *cobra.Command {

	rootCmd := &cobra.Command{
		Use:           app,
		Short:         "cv-extractor turns uploaded PDF résumés into structured candidate profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newWorkerCmd(), newEnqueueCmd(), newCheckCmd(), newRepopulateCmd())
	return rootCmd
}

// appContext holds the dependencies shared by every command.
type appContext struct {
	cfg       *config.Config
	dbContext *repositories.DbContext
	bus       EventBus.Bus
	jobs      *repositories.Jobs
	profiles  *repositories.Profiles
	cache     *services.ExtractionCache
	populator *services.ProfilePopulator
	queue     *services.JobQueue
}

func setup(ctx context.Context) (*appContext, error) {

	cfg := config.Get()
	logger.Setup(ctx, cfg.Logger)

	dbContext, err := repositories.NewDbContext(cfg.DB)
	if err != nil {
		logger.Cleanup()
		return nil, errors.Wrap(err, "can't create db context")
	}

	if err = dbContext.Migrate(); err != nil {
		_ = dbContext.Close()
		logger.Cleanup()
		return nil, errors.Wrap(err, "can't migrate db context")
	}

	bus := EventBus.New()
	jobs := repositories.NewJobsRepository(dbContext.DB)
	profiles := repositories.NewProfilesRepository(dbContext.DB)
	languages := repositories.NewCachedLanguages(repositories.NewLanguagesRepository(dbContext.DB))

	return &appContext{
		cfg:       cfg,
		dbContext: dbContext,
		bus:       bus,
		jobs:      jobs,
		profiles:  profiles,
		cache:     services.NewExtractionCache(repositories.NewExtractionsRepository(dbContext.DB)),
		populator: services.NewProfilePopulator(profiles, languages),
		queue:     services.NewJobQueue(jobs, bus, cfg.Queue),
	}, nil
}

func (a *appContext) extractionService() *services.ExtractionService {
	return services.NewExtractionService(a.queue, a.cache, a.populator)
}

func (a *appContext) close() {
	_ = a.dbContext.Close()
	logger.Cleanup()
}
