package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/cache"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/middleware"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/notification"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
)

type NotificationHandler struct {
	svc   *notification.Service
	cache *cache.Cache
	log   *zap.SugaredLogger
}

func NewNotificationHandler(svc *notification.Service, store *cache.Cache, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{svc: svc, cache: store, log: log}
}

type createNotificationRequest struct {
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Type         string   `json:"type"`
	Recipients   []string `json:"recipients"`
	TargetGroups struct {
		Roles       []string `json:"roles"`
		Departments []string `json:"departments"`
		Courses     []string `json:"courses"`
	} `json:"targetGroups"`
	Metadata struct {
		ResourceID   string `json:"resourceId"`
		AssignmentID string `json:"assignmentId"`
		SubjectID    string `json:"subjectId"`
	} `json:"metadata"`
}

func parseIDs(hexes []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, apperr.Validation("Invalid id in " + field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Create persists a notification, expands its target groups and pushes it to
// connected recipients. Faculty and admin only.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	senderID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}

	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}

	recipients, err := parseIDs(req.Recipients, "recipients")
	if err != nil {
		return response.Fail(c, err)
	}
	departments, err := parseIDs(req.TargetGroups.Departments, "targetGroups.departments")
	if err != nil {
		return response.Fail(c, err)
	}
	courses, err := parseIDs(req.TargetGroups.Courses, "targetGroups.courses")
	if err != nil {
		return response.Fail(c, err)
	}
	roles := make([]models.Role, 0, len(req.TargetGroups.Roles))
	for _, r := range req.TargetGroups.Roles {
		role := models.Role(r)
		if !role.Valid() {
			return response.Fail(c, apperr.Validation("Invalid role in targetGroups.roles"))
		}
		roles = append(roles, role)
	}

	in := notification.CreateInput{
		Title:      req.Title,
		Message:    req.Message,
		Type:       models.NotificationType(req.Type),
		Sender:     senderID,
		Recipients: recipients,
		TargetGroups: models.TargetGroups{
			Roles:       roles,
			Departments: departments,
			Courses:     courses,
		},
	}
	if meta, err := parseMetadata(req); err != nil {
		return response.Fail(c, err)
	} else {
		in.Metadata = meta
	}

	n, err := h.svc.Create(c.Context(), in)
	if err != nil {
		return response.Fail(c, err)
	}

	if err := h.svc.ExpandGroups(c.Context(), n); err != nil {
		h.log.Errorw("group expansion failed", "notificationId", n.ID.Hex(), "err", err)
	}
	delivered := h.svc.DeliverRealtime(n)

	h.cache.DelPattern("notification")
	return response.Created(c, fiber.Map{
		"notification": n,
		"delivered":    delivered,
	}, "Notification created")
}

func parseMetadata(req createNotificationRequest) (models.Metadata, error) {
	var meta models.Metadata
	set := func(hex string, dst **primitive.ObjectID, field string) error {
		if hex == "" {
			return nil
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return apperr.Validation("Invalid id in metadata." + field)
		}
		*dst = &id
		return nil
	}
	if err := set(req.Metadata.ResourceID, &meta.ResourceID, "resourceId"); err != nil {
		return meta, err
	}
	if err := set(req.Metadata.AssignmentID, &meta.AssignmentID, "assignmentId"); err != nil {
		return meta, err
	}
	if err := set(req.Metadata.SubjectID, &meta.SubjectID, "subjectId"); err != nil {
		return meta, err
	}
	return meta, nil
}

// List returns the caller's notifications, newest first, optionally filtered
// by status.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}

	var status models.NotificationStatus
	if s := c.Query("status"); s != "" {
		status = models.NotificationStatus(s)
		if !status.Valid() {
			return response.Fail(c, apperr.Validation("Invalid status filter"))
		}
	}

	items, err := h.svc.ListForUser(c.Context(), userID, status)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Succeed(c, fiber.Map{"notifications": items, "count": len(items)}, "Notifications fetched")
}

// MarkRead stamps the caller's read receipt on one notification.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	notificationID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid notification id"))
	}

	if err := h.svc.MarkRead(c.Context(), notificationID, userID); err != nil {
		// Already read or absent: nothing changed, but the caller's goal
		// holds, so answer success the same way a first read does.
		if apperr.IsKind(err, apperr.KindNotFound) {
			return response.Succeed(c, nil, "Notification marked as read")
		}
		return response.Fail(c, err)
	}

	h.cache.DelPattern("notification")
	return response.Succeed(c, nil, "Notification marked as read")
}

// MarkAllRead clears every unread receipt the caller holds.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}

	n, err := h.svc.MarkAllRead(c.Context(), userID)
	if err != nil {
		return response.Fail(c, err)
	}

	h.cache.DelPattern("notification")
	return response.Succeed(c, fiber.Map{"modified": n}, "All notifications marked as read")
}
