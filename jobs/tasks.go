package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-hr/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePayslipIssued announces a newly issued payslip to its employee.
	TaskTypePayslipIssued = "payroll:payslip_issued"
)

// PayslipIssuedPayload describes the payslip an employee is notified about.
type PayslipIssuedPayload struct {
	PayslipID  string `json:"payslip_id"`
	EmployeeID int64  `json:"employee_id"`
	Period     string `json:"period"`
}

// NewPayslipIssuedTask constructs an Asynq task.
func NewPayslipIssuedTask(payload PayslipIssuedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayslipIssued, data, asynq.MaxRetry(5)), nil
}

// PayslipIssuedHandler processes TaskTypePayslipIssued tasks.
type PayslipIssuedHandler struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle decodes the payload and emits the notification.
func (h PayslipIssuedHandler) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track(TaskTypePayslipIssued)
	var payload PayslipIssuedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.PayslipID == "" || payload.EmployeeID <= 0 {
		return tracker.End(asynq.SkipRetry)
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Delivery channel (mail, push) is configured per deployment; the log line
	// is the audit trail of the notification.
	logger.InfoContext(ctx, "payslip issued notification",
		slog.String("payslip_id", payload.PayslipID),
		slog.Int64("employee_id", payload.EmployeeID),
		slog.String("period", payload.Period))
	h.Metrics.NotificationSent()
	return tracker.End(nil)
}
