package services

import (
	"context"
	"encoding/json"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/events"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"time"
)

type messagePublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher forwards bus notifications to the Redis channel the UI
// gateway listens on. Failures are logged and never reach the job.
type RedisPublisher struct {
	bus            EventBus.Bus
	client         messagePublisher
	publishTimeout time.Duration
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis at %s is unavailable", cfg.Addr)
	}
	return client, nil
}

func NewRedisPublisher(bus EventBus.Bus, client messagePublisher) (*RedisPublisher, error) {

	p := &RedisPublisher{bus: bus, client: client, publishTimeout: 5 * time.Second}

	if err := bus.SubscribeAsync(events.ProfileGenerationChannel, p.onNotification, false); err != nil {
		return nil, err
	}
	if err := bus.SubscribeAsync(events.JobProgressTopic, p.onJobProgress, false); err != nil {
		return nil, err
	}
	return p, nil
}

// Wait blocks until every pending message has been handed to Redis.
func (p *RedisPublisher) Wait() {
	p.bus.WaitAsync()
}

func (p *RedisPublisher) onNotification(notification events.Notification) {
	p.send(notification)
}

func (p *RedisPublisher) onJobProgress(progress events.JobProgress) {
	if progress.JobType != entities.JobTypeCVExtraction {
		return
	}
	p.send(events.Notification{
		Event:   events.ProfileGenerationProgress,
		Payload: events.ProfileGenerationProgressPayload{JobID: progress.JobID, Progress: progress.Progress},
	})
}

func (p *RedisPublisher) send(notification events.Notification) {

	data, err := json.Marshal(notification)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeNotifier).
			Errorf("failed to encode %s notification: %v", notification.Event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
	defer cancel()

	if err = p.client.Publish(ctx, events.ProfileGenerationChannel, data).Err(); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeNotifier).
			Errorf("failed to publish %s notification to redis: %v", notification.Event, err)
	}
}
