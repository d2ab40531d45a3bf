package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/middleware"
	"mpa-platform/models"
	"mpa-platform/services"
	"mpa-platform/session"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	svc      *services.NotificationService
	sessions *session.Manager
	interval time.Duration
	log      *slog.Logger
}

func SetupNotificationRoutes(api, admin fiber.Router, auth fiber.Handler, d Deps) {
	h := &NotificationHandler{
		svc:      d.Notifications,
		sessions: d.Sessions,
		interval: d.PollInterval,
		log:      d.Log,
	}

	// EventSource cannot send headers, so the stream takes ?token=
	api.Get("/notifications/stream", middleware.SSEAuth(d.Verifier, d.Profiles, d.Log), h.Stream)

	n := api.Group("/notifications", auth)
	n.Get("/", h.List)
	n.Get("/counts", h.Counts)
	n.Post("/read-all", h.MarkAllRead)
	n.Patch("/:id/read", h.MarkRead)
	n.Delete("/:id", h.Delete)

	admin.Post("/notifications", h.Send)
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), middleware.UserID(c), c.QueryBool("unread", false), c.QueryInt("limit", 0))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *NotificationHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.svc.Counts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(counts)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.svc.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Send lets an admin notify a single user.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	var body struct {
		UserID  string                  `json:"user_id"`
		Title   string                  `json:"title"`
		Message string                  `json:"message"`
		Type    models.NotificationType `json:"type"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.UserID == "" {
		return fail(c, h.log, apperror.ValidationFailed("user_id", "user_id is required"))
	}
	n, err := h.svc.Create(c.UserContext(), models.Notification{
		UserID:  body.UserID,
		Title:   body.Title,
		Message: body.Message,
		Type:    body.Type,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// Stream pushes new notifications as server-sent events. It polls on a fixed
// interval and ends when the client goes away or the user signs out.
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := c.UserContext()
	done := c.Context().Done()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	signedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := h.sessions.Subscribe(func(ch session.Change) {
		if ch.Event == session.EventSignedOut && ch.UserID == userID {
			once.Do(func() { close(signedOut) })
		}
	})

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		cursor := time.Now().UTC()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var ok bool
				if cursor, ok = h.flushTick(ctx, w, userID, cursor); !ok {
					// client disconnected
					return
				}

			case <-signedOut:
				w.WriteString("event: signed_out\ndata: {}\n\n")
				w.Flush()
				return

			case <-done:
				return
			}
		}
	})

	return nil
}

// flushTick writes the notifications newer than cursor, or a comment line when
// there are none, and returns the advanced cursor. It reports false once the
// client can no longer be written to.
func (h *NotificationHandler) flushTick(ctx context.Context, w *bufio.Writer, userID string, cursor time.Time) (time.Time, bool) {
	items, err := h.svc.Since(ctx, userID, cursor)
	if err != nil {
		h.log.Warn("notification stream query failed", "user_id", userID, "error", err)
		items = nil
	}

	if len(items) == 0 {
		w.WriteString(":\n\n")
	} else {
		cursor = items[len(items)-1].CreatedAt
		for _, n := range items {
			payload, _ := json.Marshal(n)
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
		}
	}
	if err := w.Flush(); err != nil {
		return cursor, false
	}
	return cursor, true
}
