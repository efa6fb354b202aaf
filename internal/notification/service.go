package notification

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/metrics"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

// Store is the persistence surface the engine writes through.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	ReplaceRecipients(ctx context.Context, id primitive.ObjectID, recipients []models.Recipient) error
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, status models.NotificationStatus) ([]models.Notification, error)
	Archive(ctx context.Context, id primitive.ObjectID) error
}

// UserDirectory resolves target groups into user IDs.
type UserDirectory interface {
	FindUserIDsMatching(ctx context.Context, groups models.TargetGroups) ([]primitive.ObjectID, error)
}

// Pusher pushes live events to connected recipients; delivery is advisory.
type Pusher interface {
	Send(userID string, payload interface{}) bool
}

// Service is the notification engine: it builds records, resolves dynamic
// audiences, tracks read state and pushes live events.
type Service struct {
	store Store
	users UserDirectory
	push  Pusher
	log   *zap.SugaredLogger
}

func NewService(store Store, users UserDirectory, push Pusher, log *zap.SugaredLogger) *Service {
	return &Service{store: store, users: users, push: push, log: log}
}

// CreateInput is the caller-facing shape for a new notification.
type CreateInput struct {
	Title        string
	Message      string
	Type         models.NotificationType
	Sender       primitive.ObjectID
	Recipients   []primitive.ObjectID
	TargetGroups models.TargetGroups
	Metadata     models.Metadata
}

// Create validates and persists a notification with the explicit recipients
// only. Group expansion is a separate step so creation latency stays
// independent of audience size.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Notification, error) {
	if in.Title == "" {
		return nil, apperr.Validation("Title is required")
	}
	if in.Message == "" {
		return nil, apperr.Validation("Message is required")
	}
	if in.Sender.IsZero() {
		return nil, apperr.Validation("Sender is required")
	}
	if in.Type == "" {
		in.Type = models.TypeSystem
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("Invalid notification type")
	}

	recipients := make([]models.Recipient, 0, len(in.Recipients))
	for _, id := range in.Recipients {
		recipients = append(recipients, models.Recipient{User: id})
	}

	n := &models.Notification{
		Title:        in.Title,
		Message:      in.Message,
		Type:         in.Type,
		Status:       models.StatusUnread,
		Sender:       in.Sender,
		Recipients:   recipients,
		TargetGroups: in.TargetGroups,
		Metadata:     in.Metadata,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ExpandGroups resolves the notification's target groups into a deduplicated
// recipient set and persists the replacement. Criteria combine by union.
// Expansion failures never roll back the already-persisted notification.
func (s *Service) ExpandGroups(ctx context.Context, n *models.Notification) error {
	if n.TargetGroups.Empty() {
		return nil
	}

	ids, err := s.users.FindUserIDsMatching(ctx, n.TargetGroups)
	if err != nil {
		s.log.Errorw("group expansion failed", "notificationId", n.ID.Hex(), "err", err)
		return err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	recipients := make([]models.Recipient, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, models.Recipient{User: id})
	}

	if err := s.store.ReplaceRecipients(ctx, n.ID, recipients); err != nil {
		s.log.Errorw("recipient replacement failed", "notificationId", n.ID.Hex(), "err", err)
		return err
	}
	n.Recipients = recipients
	return nil
}

// DeliverRealtime pushes the notification to every connected recipient.
// Offline recipients are skipped silently; the persisted record is the
// durable source of truth for clients that reconnect and re-fetch.
func (s *Service) DeliverRealtime(n *models.Notification) int {
	payload := map[string]interface{}{
		"type":   "notification",
		"action": "new",
		"notification": map[string]interface{}{
			"_id":       n.ID.Hex(),
			"title":     n.Title,
			"message":   n.Message,
			"type":      n.Type,
			"createdAt": n.CreatedAt,
			"metadata":  n.Metadata,
		},
	}

	delivered := 0
	for _, rcpt := range n.Recipients {
		if s.push.Send(rcpt.User.Hex(), payload) {
			delivered++
			metrics.NotificationsDelivered.Inc()
		} else {
			metrics.NotificationsDropped.Inc()
		}
	}
	return delivered
}

// MarkRead stamps the recipient's read receipt. Already-read and absent
// entries report not-found; the caller may treat that as a no-op.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID primitive.ObjectID) error {
	return s.store.MarkRead(ctx, notificationID, userID, time.Now())
}

// MarkAllRead clears every unread receipt the user holds, in one bulk
// update.
func (s *Service) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID, time.Now())
}

func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID, status models.NotificationStatus) ([]models.Notification, error) {
	return s.store.ListForUser(ctx, userID, status)
}

func (s *Service) Archive(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Archive(ctx, id)
}

func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	return s.store.FindByID(ctx, id)
}
