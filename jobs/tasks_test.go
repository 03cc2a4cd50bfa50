package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-hr/internal/jobs"
	"github.com/odyssey-erp/odyssey-hr/internal/payroll"
)

type stubEnqueuer struct {
	tasks  []*asynq.Task
	opts   [][]asynq.Option
	err    error
	closed bool
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault, Type: task.Type()}, nil
}

func (s *stubEnqueuer) Close() error {
	s.closed = true
	return nil
}

func TestClientPayslipIssuedEnqueuesTask(t *testing.T) {
	stub := &stubEnqueuer{}
	client := NewClientWith(stub)
	slip := payroll.Payslip{ID: uuid.New(), EmployeeID: 9, Period: "2024-05"}

	require.NoError(t, client.PayslipIssued(context.Background(), slip))
	require.Len(t, stub.tasks, 1)
	require.Equal(t, TaskTypePayslipIssued, stub.tasks[0].Type())

	var payload PayslipIssuedPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	require.Equal(t, PayslipIssuedPayload{PayslipID: slip.ID.String(), EmployeeID: 9, Period: "2024-05"}, payload)

	require.NoError(t, client.Close())
	require.True(t, stub.closed)
}

func TestClientPayslipIssuedPropagatesErrors(t *testing.T) {
	client := NewClientWith(&stubEnqueuer{err: errors.New("redis down")})
	err := client.PayslipIssued(context.Background(), payroll.Payslip{ID: uuid.New(), EmployeeID: 9})
	require.EqualError(t, err, "redis down")
}

func TestPayslipIssuedHandler(t *testing.T) {
	h := PayslipIssuedHandler{}

	task, err := NewPayslipIssuedTask(PayslipIssuedPayload{PayslipID: "abc", EmployeeID: 3, Period: "2024-05"})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), task))

	bad := asynq.NewTask(TaskTypePayslipIssued, []byte("{"))
	require.ErrorIs(t, h.Handle(context.Background(), bad), asynq.SkipRetry)

	empty := asynq.NewTask(TaskTypePayslipIssued, []byte(`{"payslip_id":"","employee_id":0}`))
	require.ErrorIs(t, h.Handle(context.Background(), empty), asynq.SkipRetry)
}

type stubCleaner struct {
	olderThan time.Duration
	removed   int64
	err       error
}

func (s *stubCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.olderThan = olderThan
	return s.removed, s.err
}

func TestIdempotencyCleanupJob(t *testing.T) {
	cleaner := &stubCleaner{removed: 4}
	job := NewIdempotencyCleanupJob(cleaner, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 48*time.Hour, cleaner.olderThan)

	zero := asynq.NewTask(TaskTypeIdempotencyCleanup, []byte(`{"retention_hours":0}`))
	require.NoError(t, job.Handle(context.Background(), zero))
	require.Equal(t, DefaultIdempotencyRetention, cleaner.olderThan)

	cleaner.err = errors.New("db down")
	require.Error(t, job.Handle(context.Background(), task))

	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeIdempotencyCleanup, []byte("nope"))), asynq.SkipRetry)
}
