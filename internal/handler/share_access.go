package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkozlowski/homehub/internal/share"
)

// HandleShareAccess serves a file behind a share token. This is the
// only route that requires no caller identity; the token itself is the
// capability.
func (h *Handler) HandleShareAccess(c echo.Context) error {
	token := c.Param("token")

	entry, err := h.registry.Resolve(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrLinkNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Share link not found"})
		case errors.Is(err, share.ErrLinkExpired):
			return c.JSON(http.StatusGone, map[string]string{"error": "Share link has expired"})
		default:
			log.Printf("Error: Failed to resolve share link: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve link"})
		}
	}

	dl, err := h.files.Download(entry.FilePath)
	if err != nil {
		return h.fileError(c, "Failed to serve shared file", err)
	}

	if err := h.db.TouchEntry(c.Request().Context(), entry.ID, time.Now()); err != nil {
		log.Printf("Warning: Failed to record access for share link %s: %v", token, err)
	}

	log.Printf("Shared file served: %s via token %s", dl.Name, token)
	c.Response().Header().Set(echo.HeaderContentType, dl.ContentType)
	return c.Attachment(dl.Path, dl.Name)
}
