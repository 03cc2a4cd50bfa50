package cli

import (
	"context"
	"errors"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/odyssey-erp/odyssey-hr/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers against the job queue's Redis.
func NewJobsCLI(redisOpts asynq.RedisClientOpt) (*JobsCLI, error) {
	if redisOpts.Addr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	client := asynq.NewClient(redisOpts)
	inspector := asynq.NewInspector(redisOpts)
	return &JobsCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerPayslipIssued re-sends the notification for an issued payslip.
func (c *JobsCLI) TriggerPayslipIssued(ctx context.Context, payload jobs.PayslipIssuedPayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	if payload.PayslipID == "" || payload.EmployeeID <= 0 {
		return nil, errors.New("jobs cli: payslip id and employee id are required")
	}
	task, err := jobs.NewPayslipIssuedTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
	}
	return stats, nil
}

// ParseResendFlags reads the jobs resend flags from args.
func ParseResendFlags(args []string, stderr io.Writer) (jobs.PayslipIssuedPayload, error) {
	var payload jobs.PayslipIssuedPayload
	fs := pflag.NewFlagSet("jobs resend", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&payload.PayslipID, "payslip", "", "payslip ID")
	fs.Int64Var(&payload.EmployeeID, "employee", 0, "employee user ID")
	fs.StringVar(&payload.Period, "period", "", "payroll period (YYYY-MM)")
	if err := fs.Parse(args); err != nil {
		return jobs.PayslipIssuedPayload{}, err
	}
	return payload, nil
}
