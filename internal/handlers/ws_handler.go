package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/hub"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/metrics"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/notification"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

// wsFrame is the inbound message shape. Fields beyond Type are read per
// message type.
type wsFrame struct {
	Type        string          `json:"type"`
	UserID      string          `json:"userId,omitempty"`
	RecipientID string          `json:"recipientId,omitempty"`
	Action      string          `json:"action,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

type WSHandler struct {
	registry *hub.Registry
	tokens   *token.Service
	notifs   *notification.Service
	cfg      config.WSCfg

	writeDeadline time.Duration
	log           *zap.SugaredLogger
}

func NewWSHandler(registry *hub.Registry, tokens *token.Service, notifs *notification.Service, cfg config.WSCfg, writeDeadline time.Duration, log *zap.SugaredLogger) *WSHandler {
	return &WSHandler{
		registry:      registry,
		tokens:        tokens,
		notifs:        notifs,
		cfg:           cfg,
		writeDeadline: writeDeadline,
		log:           log,
	}
}

// Upgrade gates the HTTP route: only genuine WebSocket upgrade requests
// reach the connection handler.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve runs one connection: it authenticates from the access cookie, binds
// the user in the registry and processes frames until the peer goes away.
func (h *WSHandler) Serve(conn *websocket.Conn) {
	access := conn.Cookies("accessToken")
	if access == "" {
		h.rejectConn(conn, "Not authenticated")
		return
	}
	claims, err := h.tokens.VerifyAccess(access)
	if err != nil {
		h.rejectConn(conn, "Invalid token")
		return
	}
	userID := claims.UserID

	client := hub.NewClient(conn, h.writeDeadline)
	h.registry.Register(userID, client)
	metrics.WSConnections.Inc()
	defer func() {
		h.registry.Remove(client)
		metrics.WSConnections.Dec()
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSizeBytes)
	conn.SetPongHandler(func(string) error {
		client.MarkAlive()
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSecond), h.cfg.MessagesPerSecond)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		client.MarkAlive()

		if !limiter.Allow() {
			h.sendError(client, "Rate limit exceeded")
			continue
		}

		var frame wsFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			h.sendError(client, "Invalid message format")
			continue
		}

		switch frame.Type {
		case "register":
			// Identity comes from the verified token; the frame's userId is
			// ignored.
			h.registry.Register(userID, client)
		case "unregister":
			h.registry.Unbind(userID)
		case "message":
			// Direct relay: the whole frame is forwarded to the recipient.
			if frame.RecipientID != "" {
				h.registry.Send(frame.RecipientID, frame)
			}
		case "notification":
			h.handleNotification(client, userID, frame)
		default:
			h.sendError(client, "Unknown message type")
		}
	}
}

func (h *WSHandler) handleNotification(client *hub.Client, userID string, frame wsFrame) {
	switch frame.Action {
	case "send":
		h.handleSend(client, userID, frame.Payload)
	case "markAsRead":
		h.handleMarkRead(client, userID, frame.Payload)
	default:
		h.sendError(client, "Invalid notification action")
	}
}

type wsNotificationPayload struct {
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Type         string   `json:"type"`
	Recipients   []string `json:"recipients"`
	TargetGroups struct {
		Roles       []string `json:"roles"`
		Departments []string `json:"departments"`
		Courses     []string `json:"courses"`
	} `json:"targetGroups"`
}

func (h *WSHandler) handleSend(client *hub.Client, userID string, raw json.RawMessage) {
	senderID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		h.sendError(client, "Not authenticated")
		return
	}

	var p wsNotificationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, "Invalid message format")
		return
	}

	recipients, err := hexIDs(p.Recipients)
	if err != nil {
		h.sendError(client, "Invalid id in recipients")
		return
	}
	departments, err := hexIDs(p.TargetGroups.Departments)
	if err != nil {
		h.sendError(client, "Invalid id in targetGroups.departments")
		return
	}
	courses, err := hexIDs(p.TargetGroups.Courses)
	if err != nil {
		h.sendError(client, "Invalid id in targetGroups.courses")
		return
	}
	roles := make([]models.Role, 0, len(p.TargetGroups.Roles))
	for _, r := range p.TargetGroups.Roles {
		roles = append(roles, models.Role(r))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := h.notifs.Create(ctx, notification.CreateInput{
		Title:      p.Title,
		Message:    p.Message,
		Type:       models.NotificationType(p.Type),
		Sender:     senderID,
		Recipients: recipients,
		TargetGroups: models.TargetGroups{
			Roles:       roles,
			Departments: departments,
			Courses:     courses,
		},
	})
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	if err := h.notifs.ExpandGroups(ctx, n); err != nil {
		h.log.Errorw("group expansion failed", "notificationId", n.ID.Hex(), "err", err)
	}
	h.notifs.DeliverRealtime(n)

	h.reply(client, map[string]interface{}{
		"type":           "notification",
		"action":         "sent",
		"success":        true,
		"notificationId": n.ID.Hex(),
	})
}

func (h *WSHandler) handleMarkRead(client *hub.Client, userID string, raw json.RawMessage) {
	var p struct {
		NotificationID string `json:"notificationId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(client, "Invalid message format")
		return
	}
	notificationID, err := primitive.ObjectIDFromHex(p.NotificationID)
	if err != nil {
		h.sendError(client, "Invalid notification id")
		return
	}
	readerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		h.sendError(client, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = h.notifs.MarkRead(ctx, notificationID, readerID)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		h.sendError(client, err.Error())
		return
	}
	// Already-read is acked like a first read; the receipt is set either way.
	h.reply(client, map[string]interface{}{
		"type":           "notification",
		"action":         "marked",
		"success":        true,
		"notificationId": p.NotificationID,
	})
}

func hexIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hx := range hexes {
		id, err := primitive.ObjectIDFromHex(hx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *WSHandler) reply(client *hub.Client, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client.Enqueue(b)
}

func (h *WSHandler) sendError(client *hub.Client, msg string) {
	h.reply(client, map[string]string{"error": msg})
}

func (h *WSHandler) rejectConn(conn *websocket.Conn, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, b)
	_ = conn.Close()
}
