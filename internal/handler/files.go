package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkozlowski/homehub/internal/files"
	"github.com/mkozlowski/homehub/internal/middleware"
	"github.com/mkozlowski/homehub/internal/model"
	"github.com/mkozlowski/homehub/internal/pathguard"
)

type pathRequest struct {
	Path string `json:"path"`
}

type createFolderRequest struct {
	Name string `json:"name"`
}

// HandleListFiles lists the entries of a directory under the shared root.
func (h *Handler) HandleListFiles(c echo.Context) error {
	if _, ok := identity(c); !ok {
		return unauthorized(c)
	}

	entries, err := h.files.List(c.QueryParam("path"))
	if err != nil {
		return h.fileError(c, "Failed to list files", err)
	}

	return c.JSON(http.StatusOK, entries)
}

// HandleUpload accepts a multipart file upload into the shared root.
func (h *Handler) HandleUpload(c echo.Context) error {
	caller, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error: Failed to open uploaded file: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to upload file"})
	}
	defer src.Close()

	finalName, err := h.files.Upload(c.Request().Context(), caller.UserID, fileHeader.Filename, src)
	if err != nil {
		return h.fileError(c, "Failed to upload file", err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message":  "File uploaded successfully",
		"filename": finalName,
	})
}

// HandleCreateFolder creates a new folder under the given parent path.
func (h *Handler) HandleCreateFolder(c echo.Context) error {
	caller, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req createFolderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Folder name is required"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Folder name is required"})
	}

	finalName, err := h.files.CreateFolder(c.Request().Context(), caller.UserID, req.Name, c.QueryParam("path"))
	if err != nil {
		return h.fileError(c, "Failed to create folder", err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": "Folder created successfully",
		"folder":  finalName,
	})
}

// HandleDelete removes a file or folder and its metadata record.
func (h *Handler) HandleDelete(c echo.Context) error {
	if _, ok := identity(c); !ok {
		return unauthorized(c)
	}

	var req pathRequest
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File path is required"})
	}

	if err := h.files.Delete(c.Request().Context(), req.Path); err != nil {
		return h.fileError(c, "Failed to delete file", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "File/folder deleted successfully"})
}

// HandleDownload streams a file back with an attachment disposition.
func (h *Handler) HandleDownload(c echo.Context) error {
	if _, ok := identity(c); !ok {
		return unauthorized(c)
	}

	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File path is required"})
	}

	dl, err := h.files.Download(path)
	if err != nil {
		return h.fileError(c, "Failed to download file", err)
	}

	c.Response().Header().Set(echo.HeaderContentType, dl.ContentType)
	return c.Attachment(dl.Path, dl.Name)
}

// HandleGenerateShareLink issues an expiring public link for a path.
func (h *Handler) HandleGenerateShareLink(c echo.Context) error {
	caller, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req pathRequest
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File path is required"})
	}

	token, expiration, err := h.files.GenerateShareLink(c.Request().Context(), caller.UserID, req.Path)
	if err != nil {
		return h.fileError(c, "Failed to generate link", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"share_link": token,
		"expiration": expiration,
	})
}

// fileError translates service failures into client responses. Anything
// unexpected is logged and reported as a generic failure.
func (h *Handler) fileError(c echo.Context, genericMessage string, err error) error {
	switch {
	case errors.Is(err, pathguard.ErrPathEscape):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Invalid path"})
	case errors.Is(err, files.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File does not exist"})
	case errors.Is(err, files.ErrNoFile):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file selected"})
	case errors.Is(err, files.ErrMissingName):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Folder name is required"})
	default:
		log.Printf("Error: %s: %v", genericMessage, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": genericMessage})
	}
}

func identity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
}
