package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/taskgrid/internal/events"
	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/presence"
	"github.com/alfredjeanlab/taskgrid/internal/store"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GridServer serves the task grid over HTTP and gRPC.
type GridServer struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
	presence  *presence.Tracker
}

// NewGridServer returns a GridServer backed by the given store and publisher.
// A nil logger uses slog.Default().
func NewGridServer(s store.Store, p events.Publisher, logger *slog.Logger) *GridServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GridServer{store: s, publisher: p, logger: logger, presence: presence.New()}
}

// Presence returns the tracker of recent grid editors.
func (s *GridServer) Presence() *presence.Tracker {
	return s.presence
}

// recordAndPublish persists an event to the store, publishes it to NATS and
// credits the actor in the presence roster. Persisting and publishing are
// best-effort; failures are logged but do not block the caller.
func (s *GridServer) recordAndPublish(ctx context.Context, topic, projectID, taskID, actor string, event any) {
	s.presence.Record(presence.Activity{Actor: actor, ProjectID: projectID, TaskID: taskID, Topic: topic})
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "task_id", taskID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		TaskID:  taskID,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "task_id", taskID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "task_id", taskID, "error", err)
	}
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// conflictError reports a request that is well-formed but would corrupt the
// hierarchy. Transport layers map this to 409 / FailedPrecondition.
type conflictError string

func (e conflictError) Error() string { return string(e) }

// httpStatus maps a domain error to an HTTP status code.
func httpStatus(err error) int {
	var (
		ie inputError
		ce conflictError
		ve *model.ValidationError
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.As(err, &ie), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce), errors.Is(err, tree.ErrCycle), errors.Is(err, tree.ErrDuplicateID),
		errors.Is(err, store.ErrConstraint):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// grpcError maps a domain error to a gRPC status error.
func grpcError(err error) error {
	switch httpStatus(err) {
	case http.StatusNotFound:
		return status.Error(codes.NotFound, err.Error())
	case http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, err.Error())
	case http.StatusConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}
