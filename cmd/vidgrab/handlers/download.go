package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
	"github.com/lyzr/vidgrab/cmd/vidgrab/service"
	"github.com/lyzr/vidgrab/common/logger"
	mediamodels "github.com/lyzr/vidgrab/common/models"
)

// Client-facing error bodies. Internal detail is only logged.
const (
	MsgMissingURL     = "Missing URL parameter"
	MsgInvalidFormat  = "Invalid format. Choose mp3, wav, or mp4."
	MsgUnsupportedURL = "URL not supported. Use YouTube, Facebook, or Instagram video URLs."
	MsgPolicyDenied   = "Download not permitted by server policy."
	MsgDownloadFailed = "Download failed or file not found."
)

// Downloader is the pipeline the handler drives
type Downloader interface {
	Prepare(ctx context.Context, rawURL, rawFormat string) (*models.DownloadRequest, error)
	Download(ctx context.Context, req *models.DownloadRequest) (*mediamodels.Artifact, error)
	Release(a *mediamodels.Artifact)
}

// DownloadHandler serves /download
type DownloadHandler struct {
	downloads Downloader
	log       *logger.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloads Downloader, log *logger.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloads: downloads,
		log:       log,
	}
}

// Download fetches the media at ?url= in ?format= and streams it back as an attachment
// GET /download?url=...&format=mp3|wav|mp4
func (h *DownloadHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	log := h.log.WithRequest(c)

	// Only an absent format defaults; "format=" is rejected like any other bad value
	format := mediamodels.DefaultFormat.String()
	if c.QueryParams().Has("format") {
		format = c.QueryParam("format")
	}

	req, err := h.downloads.Prepare(ctx, c.QueryParam("url"), format)
	if err != nil {
		log.Info("download request rejected", "url", c.QueryParam("url"), "format", format, "error", err)
		status, msg := rejection(err)
		return c.JSON(status, map[string]interface{}{
			"error": msg,
		})
	}

	a, err := h.downloads.Download(ctx, req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": MsgDownloadFailed,
		})
	}
	defer h.downloads.Release(a)

	log.Info("sending artifact", "file", a.Name(), "size", a.Size)
	return c.Attachment(a.Path, a.Name())
}

func rejection(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingURL):
		return http.StatusBadRequest, MsgMissingURL
	case errors.Is(err, service.ErrInvalidFormat):
		return http.StatusBadRequest, MsgInvalidFormat
	case errors.Is(err, service.ErrUnsupportedURL):
		return http.StatusBadRequest, MsgUnsupportedURL
	case errors.Is(err, service.ErrPolicyDenied):
		return http.StatusForbidden, MsgPolicyDenied
	default:
		return http.StatusInternalServerError, MsgDownloadFailed
	}
}
