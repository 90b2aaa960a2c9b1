package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/dto"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type OneRunner interface {
	RunOne(ctx context.Context, jobType entity.JobType, recordID int64) (entity.RecordOutcome, error)
}

type BulkRunner interface {
	RunNow(ctx context.Context, jobType entity.JobType) (entity.BatchResult, bool, error)
}

type Server struct {
	runner OneRunner
	bulk   BulkRunner
	logger logrus.FieldLogger
}

// NewServer constructs a gRPC server handler. bulk may be nil.
func NewServer(runner OneRunner, bulk BulkRunner, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{runner: runner, bulk: bulk, logger: logger}
}

// LoggingInterceptor logs failed calls with their status code.
func LoggingInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"method": info.FullMethod,
				"code":   status.Code(err).String(),
			}).WithError(err).Warn("grpc call failed")
		}
		return resp, err
	}
}

func (s *Server) SendWelcomeEmail(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id, err := dto.IDFromGRPC(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return s.runOne(ctx, entity.JobWelcome, id)
}

func (s *Server) SendPendingOrder(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id, err := dto.IDFromGRPC(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return s.runOne(ctx, entity.JobPendingReminder, id)
}

// RunJob runs one bulk sweep of the named job type.
func (s *Server) RunJob(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	jobType, err := entity.ParseJobType(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.bulk == nil {
		return nil, status.Error(codes.Unavailable, "bulk runs are disabled")
	}

	result, ran, err := s.bulk.RunNow(ctx, jobType)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to run job")
	}
	if !ran {
		return nil, status.Error(codes.Aborted, fmt.Sprintf("%s is already running", jobType))
	}

	return structpb.NewStruct(map[string]any{
		"run_id":     result.RunID,
		"job_type":   string(result.JobType),
		"attempted":  result.Attempted,
		"sent":       result.Sent,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"duplicates": result.Duplicates,
		"truncated":  result.Truncated,
	})
}

func (s *Server) runOne(ctx context.Context, jobType entity.JobType, id int64) (*structpb.Struct, error) {
	outcome, err := s.runner.RunOne(ctx, jobType, id)
	if err != nil {
		if errors.Is(err, service.ErrUnknownJob) {
			return nil, status.Error(codes.Unavailable, "job is not enabled")
		}
		return nil, status.Error(codes.Internal, "failed to load record")
	}

	switch outcome.Status {
	case entity.OutcomeFailed:
		return nil, status.Error(codes.Internal, fmt.Sprintf("delivery failed (%s)", outcome.ErrorKind))
	case entity.OutcomeSkipped:
		switch outcome.SkipReason {
		case entity.SkipNotFound:
			return nil, status.Error(codes.NotFound, "record not found")
		case entity.SkipAlreadyProcessed:
			return nil, status.Error(codes.AlreadyExists, "notification already sent")
		}
	}

	return structpb.NewStruct(map[string]any{
		"record_id":   outcome.RecordID,
		"status":      string(outcome.Status),
		"skip_reason": string(outcome.SkipReason),
		"duplicate":   outcome.Duplicate,
	})
}
