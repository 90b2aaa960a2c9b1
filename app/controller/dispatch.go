package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/dto"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
)

const (
	defaultFailureLimit = 50
	maxFailureLimit     = 500
)

type OneRunner interface {
	RunOne(ctx context.Context, jobType entity.JobType, recordID int64) (entity.RecordOutcome, error)
}

// BulkRunner runs a sweep under the job's single-flight guard.
type BulkRunner interface {
	RunNow(ctx context.Context, jobType entity.JobType) (entity.BatchResult, bool, error)
}

type FailureLister interface {
	ListRecent(ctx context.Context, jobType entity.JobType, limit int) ([]entity.DeliveryFailure, error)
}

type DispatchController struct {
	runner   OneRunner
	bulk     BulkRunner
	failures FailureLister
	logger   logrus.FieldLogger
}

// NewDispatchController constructs the HTTP trigger controller. bulk and
// failures may be nil, in which case their routes answer 503.
func NewDispatchController(runner OneRunner, bulk BulkRunner, failures FailureLister, logger logrus.FieldLogger) *DispatchController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DispatchController{runner: runner, bulk: bulk, failures: failures, logger: logger}
}

// Register mounts the trigger routes.
func (c *DispatchController) Register(e *echo.Echo) {
	e.POST("/send-welcome-email", c.SendWelcomeEmail)
	e.POST("/send-pending-order", c.SendPendingOrder)
	e.POST("/jobs/:type/run", c.RunJob)
	e.GET("/jobs/:type/failures", c.ListFailures)
}

// SendWelcomeEmail sends the welcome email to one user if it is still owed.
func (c *DispatchController) SendWelcomeEmail(ctx echo.Context) error {
	req, err := dto.FromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	id, err := req.WelcomeRecipient()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.runOne(ctx, entity.JobWelcome, id, "welcome email sent")
}

// SendPendingOrder sends the pending order reminder for one order if it is still owed.
func (c *DispatchController) SendPendingOrder(ctx echo.Context) error {
	req, err := dto.FromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	id, err := req.PendingOrder()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.runOne(ctx, entity.JobPendingReminder, id, "pending order reminder sent")
}

// RunJob runs one bulk sweep synchronously and returns its summary.
func (c *DispatchController) RunJob(ctx echo.Context) error {
	jobType, err := entity.ParseJobType(ctx.Param("type"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if c.bulk == nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "bulk runs are disabled"})
	}

	result, ran, err := c.bulk.RunNow(ctx.Request().Context(), jobType)
	if err != nil {
		c.logger.WithError(err).WithField("job_type", jobType).Error("manual run failed")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to run job"})
	}
	if !ran {
		return ctx.JSON(http.StatusConflict, map[string]string{"error": fmt.Sprintf("%s is already running", jobType)})
	}
	return ctx.JSON(http.StatusOK, dto.NewBatchResponse(result))
}

// ListFailures returns the most recent failed deliveries of a job type.
func (c *DispatchController) ListFailures(ctx echo.Context) error {
	jobType, err := entity.ParseJobType(ctx.Param("type"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if c.failures == nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "failure log is disabled"})
	}

	limit := defaultFailureLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxFailureLimit {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("limit must be between 1 and %d", maxFailureLimit)})
		}
	}

	failures, err := c.failures.ListRecent(ctx.Request().Context(), jobType, limit)
	if err != nil {
		c.logger.WithError(err).WithField("job_type", jobType).Error("list failures")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list failures"})
	}
	return ctx.JSON(http.StatusOK, dto.NewFailureResponses(failures))
}

func (c *DispatchController) runOne(ctx echo.Context, jobType entity.JobType, id int64, sentMessage string) error {
	outcome, err := c.runner.RunOne(ctx.Request().Context(), jobType, id)
	if err != nil {
		if errors.Is(err, service.ErrUnknownJob) {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "job is not enabled"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load record"})
	}

	switch outcome.Status {
	case entity.OutcomeSent:
		return ctx.JSON(http.StatusOK, map[string]string{"message": sentMessage})
	case entity.OutcomeSkipped:
		switch outcome.SkipReason {
		case entity.SkipNotFound:
			return ctx.JSON(http.StatusNotFound, map[string]string{"message": "record not found"})
		case entity.SkipAlreadyProcessed:
			return ctx.JSON(http.StatusNotFound, map[string]string{"message": "notification already sent"})
		default:
			return ctx.JSON(http.StatusOK, map[string]string{"message": "no notification due"})
		}
	default:
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("delivery failed (%s)", outcome.ErrorKind)})
	}
}

// Health reports liveness.
func Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
