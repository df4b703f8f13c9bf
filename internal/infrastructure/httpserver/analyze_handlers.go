package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/analysis"
)

var allowedUploadTypes = map[string]bool{
	"image/png":                true,
	"image/jpeg":               true,
	"image/webp":               true,
	"application/octet-stream": true,
	// Browsers omit the part content type for some drag-and-drop uploads.
	"": true,
}

// analyzeImage accepts a multipart upload under the "image" field and runs
// the analysis pipeline. Transport-level validation (presence, size, type)
// happens here; payload validation lives in the analysis service and comes
// back as a ValidationError, mapped to 400.
func (s *Server) analyzeImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image upload")
	}
	if s.config.MaxUploadBytes > 0 && file.Size > s.config.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds size limit")
	}
	if !allowedUploadTypes[file.Header.Get(echo.HeaderContentType)] {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported image type")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
	}

	result, err := s.analysisSvc.Analyze(c.Request().Context(), c.RealIP(), data)
	if err != nil {
		if errors.Is(err, analysis.ErrInferenceFailed) {
			return echo.NewHTTPError(http.StatusBadGateway, "image analysis failed")
		}
		var verr *analysis.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Reason)
		}
		s.logger.WithError(err).Error("analysis pipeline error")
		return echo.NewHTTPError(http.StatusInternalServerError, "image analysis failed")
	}

	if result.Cached {
		GetCacheLookups().WithLabelValues("hit").Inc()
	} else {
		GetCacheLookups().WithLabelValues("miss").Inc()
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"image_hash": result.ImageHash,
			"cached":     result.Cached,
			"elements":   len(result.Elements),
		}).Info("image analyzed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"analysis": result,
	})
}
