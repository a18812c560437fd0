package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	NOTIFY_FANOUT_QUEUE = "notify_fanout_queue"
	QUEUE_WORKER_COUNT  = 5
)

// FanoutTask - задача рассылки NEW_POST подписчикам автора
type FanoutTask struct {
	PostID   int64 `json:"post_id"`
	AuthorID int64 `json:"author_id"`
}

type QueueService struct {
	posts *PostService
}

func NewQueueService() *QueueService {
	return &QueueService{posts: NewPostService()}
}

// StartWorkers запускает воркеры разбора очереди рассылки
func (qs *QueueService) StartWorkers(ctx context.Context) {
	for i := 0; i < QUEUE_WORKER_COUNT; i++ {
		go qs.worker(ctx, i)
	}
}

func (qs *QueueService) worker(ctx context.Context, workerID int) {
	log.Printf("Notify fanout worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Notify fanout worker %d stopping", workerID)
			return
		default:
			// блокирующее чтение с таймаутом
			result, err := RedisClient.BLPop(ctx, 5*time.Second, NOTIFY_FANOUT_QUEUE).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				log.Printf("Worker %d error getting task: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if len(result) < 2 {
				continue
			}

			var task FanoutTask
			if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
				log.Printf("Worker %d error unmarshaling task: %v", workerID, err)
				continue
			}

			qs.posts.NotifyFollowers(ctx, task.PostID, task.AuthorID)
		}
	}
}

// EnqueueNewPost ставит рассылку NEW_POST в очередь
func (qs *QueueService) EnqueueNewPost(ctx context.Context, postID, authorID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("redis not available")
	}

	task := FanoutTask{PostID: postID, AuthorID: authorID}
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := RedisClient.RPush(ctx, NOTIFY_FANOUT_QUEUE, taskData).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// GetQueueStats возвращает длину очереди рассылки
func (qs *QueueService) GetQueueStats(ctx context.Context) (int64, error) {
	if RedisClient == nil {
		return 0, fmt.Errorf("redis not available")
	}
	return RedisClient.LLen(ctx, NOTIFY_FANOUT_QUEUE).Result()
}
