package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

type fakeNotificationRepo struct {
	notifications []models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = uint(len(r.notifications) + 1)
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) List(ctx context.Context, audience string, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, notification := range r.notifications {
		if notification.Audience == audience {
			out = append(out, notification)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id uint) (models.Notification, error) {
	for i, notification := range r.notifications {
		if notification.ID == id {
			r.notifications[i].Read = true
			return r.notifications[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func TestPublishSanitizesMessage(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, nil, "", testValidator(), testLogger())

	resp, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Audience: models.NotificationAudienceAdmin,
		Type:     "certificate_issued",
		Message:  "Ada completed <script>alert('x')</script>Go for Marketers",
	})
	require.NoError(t, err)
	require.NotContains(t, resp.Message, "<script>")
	require.Contains(t, resp.Message, "Go for Marketers")
	require.Len(t, repo.notifications, 1)
}

func TestPublishRejectsEmptyMessage(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationRepo{}, nil, "", testValidator(), testLogger())

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Audience: models.NotificationAudienceAdmin,
		Type:     "noise",
		Message:  "<script>only markup</script>",
	})
	require.Error(t, err)
}

func TestListFiltersByAudience(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: 1, Audience: models.NotificationAudienceAdmin, Message: "a"},
		{ID: 2, Audience: models.NotificationAudienceStudent, Message: "b"},
	}}
	svc := NewNotificationService(repo, nil, "", testValidator(), testLogger())

	admin, err := svc.List(context.Background(), models.NotificationAudienceAdmin, 10, 0)
	require.NoError(t, err)
	require.Len(t, admin, 1)
	require.Equal(t, "a", admin[0].Message)
}

func TestMarkRead(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: 1, Audience: models.NotificationAudienceAdmin, Message: "a"},
	}}
	svc := NewNotificationService(repo, nil, "", testValidator(), testLogger())

	resp, err := svc.MarkRead(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, resp.Read)

	_, err = svc.MarkRead(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
