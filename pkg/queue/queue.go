package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/internal/models"
)

const (
	TaskTypeClassify = "requirements:classify"
	QueueName        = "requirements"

	jobKeyPrefix = "job_status:"
	maxRetry     = 2
	taskTimeout  = 2 * time.Minute
)

var (
	// ErrJobNotFound is returned when neither Redis nor the queue knows a job.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotCancellable is returned for jobs that are running or finished.
	ErrJobNotCancellable = errors.New("job can no longer be cancelled")
)

// Queue schedules classification jobs and keeps their transient state.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	SaveJob(ctx context.Context, job *models.Job) error
	CancelTask(ctx context.Context, jobID string) error
}

// Task is the payload carried by an asynq task.
type Task struct {
	JobID     string          `json:"jobId"`
	ObjectKey string          `json:"objectKey"`
	Filename  string          `json:"filename"`
	FileType  models.FileType `json:"fileType"`
	CreatedAt time.Time       `json:"createdAt"`
}

type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	jobTTL    time.Duration
}

// RedisOpt converts the redis settings for asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	}
}

func NewAsynqQueue(cfg config.RedisConfig) *AsynqQueue {
	redisOpt := RedisOpt(cfg)
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			DB:       cfg.DB,
			Password: cfg.Password,
		}),
		jobTTL: cfg.JobTTL,
	}
}

// Ping checks the Redis connection.
func (q *AsynqQueue) Ping(ctx context.Context) error {
	return q.redis.Ping(ctx).Err()
}

func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	t := asynq.NewTask(TaskTypeClassify, payload,
		asynq.Queue(QueueName),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
		asynq.TaskID(task.JobID),
		asynq.Retention(q.jobTTL),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// GetJob prefers the state saved by SaveJob and falls back to the queue's
// own view of the task.
func (q *AsynqQueue) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := q.savedJob(ctx, jobID)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	info, err := q.taskInfo(jobID)
	if err != nil {
		return nil, err
	}
	return jobFromTaskInfo(info), nil
}

func (q *AsynqQueue) savedJob(ctx context.Context, jobID string) (*models.Job, error) {
	data, err := q.redis.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job from redis: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *AsynqQueue) taskInfo(jobID string) (*asynq.TaskInfo, error) {
	info, err := q.inspector.GetTaskInfo(QueueName, jobID)
	if err != nil {
		if isMissing(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to inspect task: %w", err)
	}
	return info, nil
}

func (q *AsynqQueue) SaveJob(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.redis.Set(ctx, jobKeyPrefix+job.ID, data, q.jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// CancelTask removes a job that has not started yet. Running and finished
// jobs are left alone and reported as ErrJobNotCancellable.
func (q *AsynqQueue) CancelTask(ctx context.Context, jobID string) error {
	info, err := q.taskInfo(jobID)
	if err != nil {
		return err
	}
	if !cancellable(info.State) {
		return fmt.Errorf("%w: task is %s", ErrJobNotCancellable, info.State)
	}

	if err := q.inspector.DeleteTask(QueueName, jobID); err != nil {
		if isMissing(err) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	job, err := q.savedJob(ctx, jobID)
	if err != nil {
		job = jobFromTaskInfo(info)
	}
	job.Status = models.JobCancelled
	job.UpdatedAt = time.Now()
	return q.SaveJob(ctx, job)
}

func cancellable(state asynq.TaskState) bool {
	switch state {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateRetry:
		return true
	}
	return false
}

func isMissing(err error) bool {
	return errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound)
}

func (q *AsynqQueue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

// jobFromTaskInfo maps asynq's task state onto a job status.
func jobFromTaskInfo(info *asynq.TaskInfo) *models.Job {
	job := &models.Job{
		ID:        info.ID,
		Status:    models.JobPending,
		UpdatedAt: time.Now(),
	}

	var task Task
	if err := json.Unmarshal(info.Payload, &task); err == nil {
		job.Filename = task.Filename
		job.FileType = task.FileType
		job.CreatedAt = task.CreatedAt
	}

	switch info.State {
	case asynq.TaskStateActive:
		job.Status = models.JobRunning
	case asynq.TaskStateCompleted:
		job.Status = models.JobCompleted
		job.UpdatedAt = info.CompletedAt
	case asynq.TaskStateArchived:
		job.Status = models.JobFailed
		job.Error = info.LastErr
	case asynq.TaskStateRetry:
		job.Status = models.JobPending
		job.Error = info.LastErr
	}
	return job
}
