package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
)

type parseVoiceRequest struct {
	Text string `json:"text" validate:"required"`
}

type parseImageRequest struct {
	ImageURL    string `json:"imageUrl"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

func (s *Server) recognizeSpeech(c echo.Context) error {
	var src asset.AudioSource
	if err := c.Bind(&src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if src.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "audioUrl or audioBase64 is required")
	}
	t, err := s.speechSvc.Recognize(c.Request().Context(), src)
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "speech recognition failed")
	}
	return success(c, t)
}

func (s *Server) parseVoice(c echo.Context) error {
	var req parseVoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	out, err := s.extractionSvc.ParseVoice(c.Request().Context(), req.Text)
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "voice parsing failed")
	}
	return success(c, out)
}

func (s *Server) parseImage(c echo.Context) error {
	var req parseImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ImageURL == "" && req.ImageBase64 == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "imageUrl or imageBase64 is required")
	}
	out, err := s.extractionSvc.ParseImage(c.Request().Context(), req.ImageURL, req.ImageBase64, req.MimeType)
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "image parsing failed")
	}
	return success(c, out)
}
