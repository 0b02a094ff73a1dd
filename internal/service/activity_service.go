package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/observability"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/pkg/events"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder is notified after every committed mutation.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// CacheInvalidator drops derived data that a mutation may have made stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ActivityService exposes the audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo        repository.ActivityLogRepository
	publisher   events.Publisher
	invalidator CacheInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewActivityService constructs the activity log service. publisher and
// invalidator may be nil.
func NewActivityService(repo repository.ActivityLogRepository, publisher events.Publisher, invalidator CacheInvalidator, validator *validator.Validate, logger zerolog.Logger) ActivityService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &activityService{
		repo:        repo,
		publisher:   publisher,
		invalidator: invalidator,
		validator:   validator,
		logger:      logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record invalidates cached aggregates, persists the audit entry and publishes
// the matching domain event. Only the persistence error is returned.
func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("entity type is required")
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate cached aggregates")
		}
	}

	metadata := sanitizeMetadata(entry.Metadata)
	model := models.ActivityLog{
		ActorID:       entry.Actor.ID,
		ActorRole:     normalizeRole(entry.Actor.Role),
		Action:        strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType:    strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:      entry.EntityID,
		CorrelationID: observability.CorrelationID(ctx),
		Metadata:      metadata,
	}

	event := events.New(model.Action, model.EntityType, model.EntityID)
	event.ActorID = model.ActorID
	event.ActorRole = model.ActorRole
	event.Data = metadata
	event.CorrelationID = model.CorrelationID
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Str("correlation_id", event.CorrelationID).Msg("failed to publish domain event")
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := authorize(actor, adminRoles...); err != nil {
		return dto.ActivityListResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	page := req.PageRequest.Normalize()
	filter := repository.ActivityLogFilter{
		Page:       page.Page,
		PageSize:   page.PageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}
	if req.Since != "" || req.Until != "" {
		window, err := parseWindow(windowFields{start: "since", end: "until"}, req.Since, req.Until)
		if err != nil {
			return dto.ActivityListResponse{}, err
		}
		filter.Since = window.Start
		filter.Until = window.End
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewActivityResponse(entry))
	}

	return dto.ActivityListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, total)}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
