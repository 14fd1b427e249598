package main

import (
	"github.com/maxaizer/cv-extractor/internal/clients/gemini"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/maxaizer/cv-extractor/internal/metrics"
	"github.com/maxaizer/cv-extractor/internal/renderer"
	"github.com/maxaizer/cv-extractor/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued extraction jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.cfg.ValidateAI(); err != nil {
				return err
			}

			metrics.StartMetricsServer(a.cfg.Metrics.Port)

			pageRenderer := renderer.NewPageRenderer(renderer.Config{
				BinaryPath: a.cfg.Renderer.BinaryPath,
				ScratchDir: a.cfg.Renderer.ScratchDir,
				MaxWidth:   a.cfg.Renderer.MaxWidth,
				Timeout:    a.cfg.Renderer.Timeout,
			})
			if binary, err := pageRenderer.Binary(); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeRenderer).
					Errorf("rasterizer not available yet, extraction jobs will fail until it is installed: %v", err)
			} else {
				log.Infof("rendering pages with %s", binary)
			}

			aiClient, err := gemini.NewClient(ctx, a.cfg.AI.Key, gemini.Model(a.cfg.AI.Model))
			if err != nil {
				return errors.Wrap(err, "can't create AI client")
			}
			defer aiClient.Close()
			aiClient.SetMinuteRateLimit(a.cfg.AI.MaxRequestsPerMinute)
			aiClient.SetDayRateLimit(a.cfg.AI.MaxRequestsPerDay)

			if a.cfg.Redis.Enabled() {
				redisClient, err := services.NewRedisClient(ctx, a.cfg.Redis)
				if err != nil {
					return err
				}
				defer redisClient.Close()

				publisher, err := services.NewRedisPublisher(a.bus, redisClient)
				if err != nil {
					return errors.Wrap(err, "can't subscribe redis publisher")
				}
				defer publisher.Wait()
			}

			cleaner, err := services.NewQueueCleaner(a.jobs, a.cfg.Queue.Retention)
			if err != nil {
				return errors.Wrap(err, "can't create queue cleaner")
			}
			defer cleaner.Stop()

			worker := services.NewExtractionWorker(pageRenderer, aiClient, a.cache, a.populator, services.NewNotifier(a.bus))
			a.queue.Register(entities.JobTypeCVExtraction, worker)

			a.queue.Run(ctx)

			log.Info("Services stopped.")
			return nil
		},
	}
}
