package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/observability"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/pkg/events"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
	err     error
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.events = append(r.events, event)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	repo := &memoryActivityRepo{}
	publisher := &recordingPublisher{}
	invalidator := &countingInvalidator{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewActivityService(repo, publisher, invalidator, validate, testLogger())

	ctx := observability.WithCorrelationID(context.Background(), "req-42")
	entry, err := svc.Record(ctx, ActivityEntry{
		Actor:      Actor{ID: 1, Role: "Admin"},
		Action:     "Student.Updated",
		EntityType: "student",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email": "student@example.com",
			"field": "year",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "year", entry.Metadata["field"])
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "student.updated", entry.Action)
	require.Equal(t, "req-42", entry.CorrelationID)

	require.Equal(t, 1, invalidator.calls)
	require.Len(t, publisher.events, 1)
	require.Equal(t, "student.updated", publisher.events[0].Type)
	require.Equal(t, uint(5), *publisher.events[0].EntityID)
	require.Equal(t, "***", publisher.events[0].Data["email"])
	require.Equal(t, "req-42", publisher.events[0].CorrelationID)
}

func TestActivityServiceRecordStillInvalidatesOnStoreFailure(t *testing.T) {
	repo := &memoryActivityRepo{err: errors.New("db down")}
	invalidator := &countingInvalidator{}
	svc := NewActivityService(repo, nil, invalidator, validator.New(), testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{Action: "course.deleted", EntityType: "course"})
	require.Error(t, err)
	require.Equal(t, 1, invalidator.calls)

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "course"})
	require.Error(t, err)
}

func TestActivityServiceListRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStudent(t, "Ada", 1)
	env.addCourse(t, "Algorithms")

	_, err := env.activity.List(ctx, facultyActor, dto.ActivityListRequest{})
	require.ErrorIs(t, err, ErrAccessDenied)

	page, err := env.activity.List(ctx, adminActor, dto.ActivityListRequest{EntityType: "Course"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Pagination.TotalItems)
	require.Equal(t, "course.created", page.Items[0].Action)
	require.Equal(t, 1, page.Pagination.TotalPages)
}

func TestActivityServiceListFiltersByEntityAndWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.addStudent(t, "Ada", 1)
	env.addStudent(t, "Alan", 2)

	page, err := env.activity.List(ctx, adminActor, dto.ActivityListRequest{EntityType: "student", EntityID: ada.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, ada.ID, *page.Items[0].EntityID)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	page, err = env.activity.List(ctx, adminActor, dto.ActivityListRequest{Since: tomorrow})
	require.NoError(t, err)
	require.Empty(t, page.Items)

	_, err = env.activity.List(ctx, adminActor, dto.ActivityListRequest{Since: "yesterday"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "since must be a date")
}
