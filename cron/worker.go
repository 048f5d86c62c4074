package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"staycal/config"
	slotRepo "staycal/database/repository/slot"
	"staycal/models"
	syncsvc "staycal/services/sync"

	"github.com/hibiken/asynq"
)

const (
	// TypeSlotPublish re-delivers a committed slot event whose first
	// publish failed.
	TypeSlotPublish = "sync:publish"
	// TypeSlotPrune removes empty slot records for dates that have
	// passed.
	TypeSlotPrune = "slots:prune"
)

// pruneInterval controls how often empty past slots are swept.
const pruneInterval = 24 * time.Hour

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// TaskClient enqueues background tasks.
type TaskClient struct {
	client *asynq.Client
}

// NewTaskClient creates the asynq client.
func NewTaskClient() *TaskClient {
	return &TaskClient{client: asynq.NewClient(redisOpts())}
}

// EnqueueSlotPublish schedules a retry of a failed slot publish. The
// worker keeps retrying with asynq's backoff until the channel takes
// it; the hub's version filter discards it if it arrives stale.
func (c *TaskClient) EnqueueSlotPublish(event models.SlotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode slot event: %w", err)
	}
	task := asynq.NewTask(TypeSlotPublish, payload)
	if _, err := c.client.Enqueue(task, asynq.MaxRetry(10)); err != nil {
		return fmt.Errorf("failed to enqueue slot publish: %w", err)
	}
	return nil
}

// InitSyncWorker runs the async worker in background and starts the
// daily prune ticker.
func InitSyncWorker(syncCh syncsvc.SyncChannel, repo slotRepo.SlotRepository) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSlotPublish, handleSlotPublish(syncCh))
	mux.HandleFunc(TypeSlotPrune, handleSlotPrune(repo, syncCh))

	go schedulePrunes()

	// Start async worker with retry logic
	go func() {
		log.Println("[SyncWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SyncWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SyncWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleSlotPublish(syncCh syncsvc.SyncChannel) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.SlotEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			log.Printf("[SlotPublish] Invalid payload: %v", err)
			return err
		}
		if err := syncCh.Publish(ctx, event); err != nil {
			// Returning the error lets asynq retry with backoff.
			return err
		}
		return nil
	}
}

func handleSlotPrune(repo slotRepo.SlotRepository, syncCh syncsvc.SyncChannel) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		today := models.NewSlotDate(time.Now())
		pruned, err := repo.PruneEmptyBefore(ctx, today)
		if err != nil {
			log.Printf("[SlotPrune] Prune failed: %v", err)
			return err
		}
		if len(pruned) > 0 {
			// Drop the hub's version floors along with the records so
			// both stay bounded by the live calendar.
			syncCh.Forget(pruned...)
			log.Printf("[SlotPrune] Removed %d empty past slots", len(pruned))
		}
		return nil
	}
}

// schedulePrunes enqueues a prune task once at startup and then daily.
func schedulePrunes() {
	client := asynq.NewClient(redisOpts())
	enqueue := func() {
		if _, err := client.Enqueue(asynq.NewTask(TypeSlotPrune, nil)); err != nil {
			log.Printf("[SlotPrune] Failed to enqueue prune: %v", err)
		}
	}

	enqueue()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for range ticker.C {
		enqueue()
	}
}
