package requirements

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/queue"
	"github.com/feichai0017/smart-sdlc/pkg/storage"
)

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = queue.ErrJobNotFound
	// ErrJobNotCancellable is returned when cancelling a running or finished job.
	ErrJobNotCancellable = queue.ErrJobNotCancellable
)

// JobService runs the pipeline asynchronously: uploads are staged in object
// storage, classified by a worker and the result is kept in the queue's
// job state until it expires.
type JobService struct {
	pipeline  *Pipeline
	queue     queue.Queue
	storage   storage.Storage
	retention time.Duration
	logger    logger.Logger
}

func NewJobService(p *Pipeline, q queue.Queue, s storage.Storage, retention time.Duration, log logger.Logger) *JobService {
	return &JobService{
		pipeline:  p,
		queue:     q,
		storage:   s,
		retention: retention,
		logger:    log.Named("jobs"),
	}
}

// Submit stages data and schedules its classification.
func (s *JobService) Submit(ctx context.Context, filename string, data []byte) (*models.Job, error) {
	now := time.Now()
	job := &models.Job{
		ID:        uuid.New().String(),
		Status:    models.JobPending,
		Filename:  filename,
		FileType:  models.FileTypeOf(filename),
		CreatedAt: now,
		UpdatedAt: now,
	}
	log := logger.FromContext(ctx, s.logger).With(logger.String("jobId", job.ID))

	key, err := s.storage.Store(ctx, bytes.NewReader(data), objectKey(job.ID, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	if err := s.queue.SaveJob(ctx, job); err != nil {
		log.Error("Failed to save initial job state", logger.Error(err))
	}

	task := &queue.Task{
		JobID:     job.ID,
		ObjectKey: key,
		Filename:  filename,
		FileType:  job.FileType,
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Warn("Failed to remove staged upload", logger.Error(delErr))
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Info("Classification job submitted",
		logger.String("filename", filename),
		logger.Int("size", len(data)),
	)
	return job, nil
}

func (s *JobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	return s.queue.GetJob(ctx, jobID)
}

func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	if err := s.queue.CancelTask(ctx, jobID); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info("Classification job cancelled", logger.String("jobId", jobID))
	return nil
}

// HandleJob classifies a staged upload. Only storage failures are returned,
// so the queue can retry them; classification itself cannot fail.
func (s *JobService) HandleJob(ctx context.Context, task *queue.Task) error {
	log := logger.FromContext(ctx, s.logger).With(logger.String("jobId", task.JobID))
	job := &models.Job{
		ID:        task.JobID,
		Status:    models.JobRunning,
		Filename:  task.Filename,
		FileType:  task.FileType,
		CreatedAt: task.CreatedAt,
		UpdatedAt: time.Now(),
	}
	s.save(ctx, log, job)

	data, err := s.load(ctx, task.ObjectKey)
	if err != nil {
		job.Status, job.Error, job.UpdatedAt = models.JobFailed, err.Error(), time.Now()
		s.save(ctx, log, job)
		return err
	}

	reqs, outcome := s.pipeline.RunWithOutcome(ctx, models.Document{Data: data, FileType: task.FileType})
	job.Status = models.JobCompleted
	job.Outcome = outcome
	job.Requirements = reqs
	job.UpdatedAt = time.Now()
	s.save(ctx, log, job)

	if err := s.storage.Delete(ctx, task.ObjectKey); err != nil {
		log.Warn("Failed to remove staged upload", logger.Error(err))
	}
	return nil
}

// CleanupStaged removes uploads older than the retention period, left behind
// by jobs that never completed.
func (s *JobService) CleanupStaged(ctx context.Context) error {
	threshold := time.Now().Add(-s.retention)
	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup staged uploads: %w", err)
	}
	s.logger.Info("Staged upload cleanup finished", logger.Time("threshold", threshold))
	return nil
}

func (s *JobService) load(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged upload: %w", err)
	}
	return data, nil
}

func (s *JobService) save(ctx context.Context, log logger.Logger, job *models.Job) {
	if err := s.queue.SaveJob(ctx, job); err != nil {
		log.Error("Failed to save job state",
			logger.String("status", string(job.Status)),
			logger.Error(err),
		)
	}
}

func objectKey(jobID, filename string) string {
	base := path.Base(filename)
	if base == "." || base == "/" {
		base = "upload"
	}
	return path.Join("uploads", jobID, base)
}

// IsNotFound reports whether err means the job does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

// IsNotCancellable reports whether err means the job already started or finished.
func IsNotCancellable(err error) bool {
	return errors.Is(err, ErrJobNotCancellable)
}
