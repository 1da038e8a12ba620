package requirements

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/queue"
)

type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	storeErr  error
	threshold time.Time
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Store(_ context.Context, r io.Reader, key string) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return key, nil
}

func (m *memStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) CleanupBefore(_ context.Context, threshold time.Time) error {
	m.threshold = threshold
	return nil
}

type memQueue struct {
	mu         sync.Mutex
	jobs       map[string]models.Job
	history    []models.JobStatus
	tasks      []*queue.Task
	enqueueErr error
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: make(map[string]models.Job)}
}

func (q *memQueue) Enqueue(_ context.Context, task *queue.Task) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *memQueue) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, queue.ErrJobNotFound
	}
	return &job, nil
}

func (q *memQueue) SaveJob(_ context.Context, job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.ID] = *job
	q.history = append(q.history, job.Status)
	return nil
}

func (q *memQueue) CancelTask(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return queue.ErrJobNotFound
	}
	job.Status = models.JobCancelled
	q.jobs[jobID] = job
	return nil
}

func newJobService(t *testing.T, remote RemoteClassifier) (*JobService, *memQueue, *memStorage) {
	t.Helper()
	q, s := newMemQueue(), newMemStorage()
	p := NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, remote, logger.NewTestLogger())
	return NewJobService(p, q, s, time.Hour, logger.NewTestLogger()), q, s
}

func TestSubmit_StagesAndEnqueues(t *testing.T) {
	svc, q, s := newJobService(t, nil)

	job, err := svc.Submit(context.Background(), "../../Specs.PDF", []byte("payload"))

	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, models.PDF, job.FileType)

	require.Len(t, q.tasks, 1)
	task := q.tasks[0]
	assert.Equal(t, job.ID, task.JobID)
	assert.Equal(t, "uploads/"+job.ID+"/Specs.PDF", task.ObjectKey)
	assert.Equal(t, []byte("payload"), s.objects[task.ObjectKey])

	saved, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, saved.Status)
}

func TestSubmit_EnqueueFailureRemovesStagedUpload(t *testing.T) {
	svc, q, s := newJobService(t, nil)
	q.enqueueErr = errors.New("redis down")

	_, err := svc.Submit(context.Background(), "notes.txt", []byte("payload"))

	require.Error(t, err)
	assert.Empty(t, s.objects)
}

func TestSubmit_StorageFailure(t *testing.T) {
	svc, q, s := newJobService(t, nil)
	s.storeErr = errors.New("bucket missing")

	_, err := svc.Submit(context.Background(), "notes.txt", []byte("payload"))

	require.Error(t, err)
	assert.Empty(t, q.tasks)
	assert.Empty(t, q.jobs)
}

func TestHandleJob_CompletesAndCleansUp(t *testing.T) {
	remote := &stubRemote{reqs: remoteResult(6)}
	svc, q, s := newJobService(t, remote)
	job, err := svc.Submit(context.Background(), "notes.txt", []byte(longDoc))
	require.NoError(t, err)

	require.NoError(t, svc.HandleJob(context.Background(), q.tasks[0]))

	done, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, done.Status)
	assert.Equal(t, models.OutcomeRemote, done.Outcome)
	assert.Equal(t, remoteResult(6), done.Requirements)
	assert.Equal(t, []models.JobStatus{models.JobPending, models.JobRunning, models.JobCompleted}, q.history)
	assert.Empty(t, s.objects)
}

func TestHandleJob_MissingUploadFails(t *testing.T) {
	svc, q, _ := newJobService(t, nil)
	task := &queue.Task{JobID: "job-1", ObjectKey: "uploads/job-1/gone.txt", Filename: "gone.txt", FileType: models.Text}

	err := svc.HandleJob(context.Background(), task)

	require.Error(t, err)
	job, getErr := svc.Get(context.Background(), "job-1")
	require.NoError(t, getErr)
	assert.Equal(t, models.JobFailed, job.Status)
	assert.NotEmpty(t, job.Error)
	assert.Equal(t, []models.JobStatus{models.JobRunning, models.JobFailed}, q.history)
}

func TestGetAndCancel_UnknownJob(t *testing.T) {
	svc, _, _ := newJobService(t, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, IsNotFound(err))

	err = svc.Cancel(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestCancel(t *testing.T) {
	svc, _, _ := newJobService(t, nil)
	job, err := svc.Submit(context.Background(), "notes.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), job.ID))

	got, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, got.Status)
}

func TestCleanupStaged_UsesRetention(t *testing.T) {
	svc, _, s := newJobService(t, nil)

	require.NoError(t, svc.CleanupStaged(context.Background()))

	assert.WithinDuration(t, time.Now().Add(-time.Hour), s.threshold, time.Minute)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "uploads/id/report.pdf", objectKey("id", "report.pdf"))
	assert.Equal(t, "uploads/id/report.pdf", objectKey("id", "a/b/report.pdf"))
	assert.Equal(t, "uploads/id/upload", objectKey("id", ""))
	assert.True(t, strings.HasPrefix(objectKey("id", "/"), "uploads/id/"))
}
