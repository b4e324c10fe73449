package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/app/handler/api/response"

	"github.com/gofiber/fiber/v2"
)

const streamKeepAlive = 15 * time.Second

type SyncHandler struct {
	syncUsecase domain.SyncService

	// done is closed by CloseStreams and ends every open stream.
	done      chan struct{}
	closeOnce sync.Once
}

func NewSyncHandler(syncUsecase domain.SyncService) *SyncHandler {
	return &SyncHandler{
		syncUsecase: syncUsecase,
		done:        make(chan struct{}),
	}
}

// CloseStreams ends every open and future event stream. It must run before
// the HTTP server shuts down, which waits for streaming responses to finish.
func (h *SyncHandler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Status always answers 200; a broken listener shows up as degraded.
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(response.Success(h.syncUsecase.Status(c.Context())))
}

func (h *SyncHandler) Mirror(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(response.Success(h.syncUsecase.Mirror(c.Context())))
}

func (h *SyncHandler) MirrorEntry(c *fiber.Ctx) error {
	productID, err := productIDParam(c)
	if err != nil {
		slog.ErrorContext(c.Context(), "[syncHandler] MirrorEntry", "productID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	entry, err := h.syncUsecase.MirrorEntry(c.Context(), productID)
	if err != nil {
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(entry))
}

func (h *SyncHandler) Resync(c *fiber.Ctx) error {
	result, err := h.syncUsecase.Resync(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[syncHandler] Resync", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

// Stream sends every mirror change as a server-sent event until the client
// goes away, the watch is closed or CloseStreams is called.
func (h *SyncHandler) Stream(c *fiber.Ctx) error {
	events, cancel := h.syncUsecase.Watch(c.Context())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-h.done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					slog.Error("[syncHandler] Stream", "marshal", err)
					continue
				}
				fmt.Fprintf(w, "event: stock\ndata: %s\n\n", data)
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
			}
			if err := w.Flush(); err != nil {
				slog.Info("[syncHandler] Stream", "clientGone", err)
				return
			}
		}
	})
	return nil
}
