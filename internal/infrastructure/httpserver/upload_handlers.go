package httpserver

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver/helpers"
)

type imageBase64Request struct {
	ImageBase64 string `json:"imageBase64" validate:"required"`
	MimeType    string `json:"mimeType"`
	FileName    string `json:"fileName"`
}

type audioBase64Request struct {
	AudioBase64 string `json:"audioBase64" validate:"required"`
	FileName    string `json:"fileName"`
}

func (s *Server) uploadImage(c echo.Context) error {
	data, header, err := s.readFormFile(c, "file")
	if err != nil {
		return err
	}
	res, err := s.uploadSvc.UploadImage(c.Request().Context(), data, header.Filename, header.Header.Get(echo.HeaderContentType), helpers.BaseURL(c, s.config.PublicURL))
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "image upload failed")
	}
	return success(c, res)
}

func (s *Server) uploadImageBase64(c echo.Context) error {
	var req imageBase64Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "imageBase64 is required")
	}
	data, mime, err := decodeBase64Payload(req.ImageBase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "imageBase64 is not valid base64")
	}
	if req.MimeType != "" {
		mime = req.MimeType
	}
	res, err := s.uploadSvc.UploadImage(c.Request().Context(), data, req.FileName, mime, helpers.BaseURL(c, s.config.PublicURL))
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "image upload failed")
	}
	return success(c, res)
}

func (s *Server) uploadAudio(c echo.Context) error {
	data, header, err := s.readFormFile(c, "audio")
	if err != nil {
		return err
	}
	res, err := s.uploadSvc.UploadAudio(c.Request().Context(), data, header.Filename, header.Header.Get(echo.HeaderContentType), helpers.BaseURL(c, s.config.PublicURL))
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "audio upload failed")
	}
	return success(c, res)
}

// uploadAudioBase64 exists because the mini-program cannot always use
// multipart uploads against an unlisted domain.
func (s *Server) uploadAudioBase64(c echo.Context) error {
	var req audioBase64Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audioBase64 is required")
	}
	data, _, err := decodeBase64Payload(req.AudioBase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audioBase64 is not valid base64")
	}
	res, err := s.uploadSvc.UploadAudio(c.Request().Context(), data, req.FileName, asset.AudioMimeType, helpers.BaseURL(c, s.config.PublicURL))
	if err != nil {
		return s.serviceError(err, http.StatusBadGateway, "audio upload failed")
	}
	return success(c, res)
}

// getTempAudio serves a staged recording once; the id is void afterwards.
func (s *Server) getTempAudio(c echo.Context) error {
	data, err := s.uploadSvc.TakeTempAudio(c.Param("id"))
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to read audio")
	}
	return c.Blob(http.StatusOK, asset.AudioMimeType, data)
}

func (s *Server) getTempImage(c echo.Context) error {
	data, mime, err := s.uploadSvc.TempImage(c.Param("id"))
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to read image")
	}
	return c.Blob(http.StatusOK, mime, data)
}

func (s *Server) readFormFile(c echo.Context, field string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, asset.ErrEmptyPayload.Error())
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file").SetInternal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file").SetInternal(err)
	}
	if len(data) == 0 {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, asset.ErrEmptyPayload.Error())
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"field": field, "name": header.Filename, "size": humanize.Bytes(uint64(len(data)))}).Debug("multipart file received")
	}
	return data, header, nil
}

// decodeBase64Payload accepts plain or data-URL base64, padded or not, and
// returns the MIME type named by a data URL prefix.
func decodeBase64Payload(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	mime := ""
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i > 0 {
			meta := s[len("data:"):i]
			mime = strings.TrimSuffix(meta, ";base64")
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, "", err
		}
	}
	return data, mime, nil
}
