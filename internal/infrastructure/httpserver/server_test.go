package httpserver_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/ledger/internal/application/services"
	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver"
	"github.com/avatarctic/ledger/internal/infrastructure/tempstore"
	"github.com/avatarctic/ledger/test/mocks"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, deps httpserver.ServerDeps) *httpserver.Server {
	t.Helper()
	if deps.AuthService == nil {
		deps.AuthService = &mocks.AuthServiceMock{EnabledFn: func() bool { return false }}
	}
	if deps.AccountService == nil {
		deps.AccountService = &mocks.AccountServiceMock{}
	}
	if deps.UploadService == nil {
		temp := tempstore.New(tempstore.Options{AudioTTL: time.Minute, ImageTTL: time.Minute})
		t.Cleanup(temp.Close)
		deps.TempAssets = temp
		deps.UploadService = services.NewUploadService(nil, temp, nil)
	}
	if deps.SpeechService == nil {
		deps.SpeechService = &mocks.SpeechServiceMock{}
	}
	if deps.ExtractionService == nil {
		deps.ExtractionService = &mocks.ExtractionServiceMock{}
	}
	return httpserver.NewServer(&httpserver.ServerConfig{BodyLimit: "2M"}, quietLogger(), deps)
}

func do(t *testing.T, s *httpserver.Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAudioBase64Upload_TempURLServesOnce(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})
	wav := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	body := `{"audioBase64":"` + base64.StdEncoding.EncodeToString(wav) + `"}`

	rec := do(t, s, http.MethodPost, "/api/upload/audio-base64", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.Equal(t, 200, env.Code)
	var res asset.UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.True(t, strings.HasPrefix(res.URL, "http://example.com/api/upload/audio-temp/temp-"))

	path := strings.TrimPrefix(res.URL, "http://example.com")
	first := do(t, s, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "audio/wav", first.Header().Get("Content-Type"))
	require.Equal(t, wav, first.Body.Bytes())

	second := do(t, s, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusNotFound, second.Code)
	env = decode(t, second)
	require.Equal(t, 404, env.Code)
	require.Equal(t, "not found", env.Msg)
}

func TestImageMultipartUpload_TempURLServesRepeatedly(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)
	_, err = part.Write(make([]byte, 1024))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := do(t, s, http.MethodPost, "/api/upload/image", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)
	var res asset.UploadResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	path := strings.TrimPrefix(res.URL, "http://example.com")
	require.True(t, strings.HasPrefix(path, "/api/upload/image-temp/img-"))

	for i := 0; i < 2; i++ {
		got := do(t, s, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, got.Code)
		require.Len(t, got.Body.Bytes(), 1024)
	}
}

func TestImageBase64Upload_DataURLAndBadInput(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})

	body := `{"imageBase64":"data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("png-bytes")) + `"}`
	rec := do(t, s, http.MethodPost, "/api/upload/image-base64", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var res asset.UploadResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	got := do(t, s, http.MethodGet, strings.TrimPrefix(res.URL, "http://example.com"), nil, "")
	require.Equal(t, "image/png", got.Header().Get("Content-Type"))

	bad := do(t, s, http.MethodPost, "/api/upload/image-base64", strings.NewReader(`{"imageBase64":"%%%"}`), "application/json")
	require.Equal(t, http.StatusBadRequest, bad.Code)
	require.Equal(t, 400, decode(t, bad).Code)

	missing := do(t, s, http.MethodPost, "/api/upload/image-base64", strings.NewReader(`{}`), "application/json")
	require.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestUnknownTempIDs_NotFound(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/upload/audio-temp/temp-0-nope", nil, "").Code)
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/upload/image-temp/img-0-nope", nil, "").Code)
}

func TestConfigCheck(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{SpeechService: &mocks.SpeechServiceMock{ConfiguredFn: func() bool { return false }}})
	rec := do(t, s, http.MethodGet, "/api/config-check", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Equal(t, false, data["aiApiKeyConfigured"])
	require.Equal(t, false, data["objectStorageEnabled"])
	require.Equal(t, false, data["authenticationEnabled"])
	require.Contains(t, data["message"], "AI_API_KEY")
}

func TestCreateAccount_ValidationFailureIsEnveloped(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})
	rec := do(t, s, http.MethodPost, "/api/accounts", strings.NewReader(`{"amount": 10}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.Equal(t, 400, env.Code)
	require.Contains(t, env.Msg, "CustomerName")
}

func TestAccountCRUDHandlers(t *testing.T) {
	store := map[int64]*ledger.Account{}
	svc := &mocks.AccountServiceMock{
		CreateAccountFn: func(ctx context.Context, req *ledger.CreateAccountRequest) (*ledger.Account, error) {
			a := &ledger.Account{ID: int64(len(store) + 1), CustomerName: req.CustomerName, Amount: req.Amount, ItemDescription: req.ItemDescription}
			store[a.ID] = a
			return a, nil
		},
		GetAccountFn: func(ctx context.Context, id int64) (*ledger.Account, error) {
			if a, ok := store[id]; ok {
				return a, nil
			}
			return nil, ledger.ErrAccountNotFound
		},
		ListAccountsFn: func(ctx context.Context, f *ledger.AccountFilter) ([]*ledger.Account, int, error) {
			require.Equal(t, "老刘", f.Keyword)
			require.Equal(t, 500, f.Limit)
			require.NotNil(t, f.IsPaid)
			return []*ledger.Account{store[1]}, 9, nil
		},
	}
	s := newTestServer(t, httpserver.ServerDeps{AccountService: svc})

	rec := do(t, s, http.MethodPost, "/api/accounts", strings.NewReader(`{"customer_name":"老刘","amount":1200,"item_description":"饲料"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/accounts/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var a ledger.Account
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &a))
	require.Equal(t, "老刘", a.CustomerName)

	rec = do(t, s, http.MethodGet, "/api/accounts/2", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/accounts/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/accounts?keyword=%E8%80%81%E5%88%98&limit=9999&isPaid=false", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "9", rec.Header().Get("X-Total-Count"))

	rec = do(t, s, http.MethodGet, "/api/accounts?startDate=15/10/2025", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/accounts/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null", string(decode(t, rec).Data))
}

func TestRecognizeSpeech_BusyUpstreamMapsTo503(t *testing.T) {
	speech := &mocks.SpeechServiceMock{RecognizeFn: func(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error) {
		require.Equal(t, "http://example.com/api/upload/audio-temp/temp-1", src.URL)
		return nil, asset.ErrUpstreamBusy
	}}
	s := newTestServer(t, httpserver.ServerDeps{SpeechService: speech})

	rec := do(t, s, http.MethodPost, "/api/asr/recognize", strings.NewReader(`{"audioUrl":"http://example.com/api/upload/audio-temp/temp-1"}`), "application/json")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/asr/recognize", strings.NewReader(`{}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseVoice_AIUnavailable(t *testing.T) {
	ext := &mocks.ExtractionServiceMock{ParseVoiceFn: func(ctx context.Context, text string) (*ledger.ExtractedAccount, error) {
		return nil, asset.ErrAIUnavailable
	}}
	s := newTestServer(t, httpserver.ServerDeps{ExtractionService: ext})
	rec := do(t, s, http.MethodPost, "/api/ai/parse-voice", strings.NewReader(`{"text":"老刘买了饲料"}`), "application/json")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, asset.ErrAIUnavailable.Error(), decode(t, rec).Msg)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{AuthService: &mocks.AuthServiceMock{}})
	rec := do(t, s, http.MethodGet, "/api/accounts", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 401, decode(t, rec).Code)

	// temp asset fetches stay public
	rec = do(t, s, http.MethodGet, "/api/upload/audio-temp/temp-0-x", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	down := &mocks.HealthCheckerMock{NameValue: "redis", CheckFn: func(ctx context.Context) error { return context.DeadlineExceeded }}
	s := newTestServer(t, httpserver.ServerDeps{HealthCheckers: []ports.HealthChecker{&mocks.HealthCheckerMock{NameValue: "database"}}})
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil, "").Code)

	s = newTestServer(t, httpserver.ServerDeps{HealthCheckers: []ports.HealthChecker{down}})
	require.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/health", nil, "").Code)
}

func TestImageBase64Upload_HTMLIsNotServedAsHTML(t *testing.T) {
	s := newTestServer(t, httpserver.ServerDeps{})
	payload := base64.StdEncoding.EncodeToString([]byte("<script>alert(document.cookie)</script>"))

	for _, body := range []string{
		`{"imageBase64":"` + payload + `","mimeType":"text/html"}`,
		`{"imageBase64":"data:text/html;base64,` + payload + `"}`,
	} {
		rec := do(t, s, http.MethodPost, "/api/upload/image-base64", strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
		var res asset.UploadResult
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))

		got := do(t, s, http.MethodGet, strings.TrimPrefix(res.URL, "http://example.com"), nil, "")
		require.Equal(t, http.StatusOK, got.Code)
		require.Equal(t, asset.DefaultImageMimeType, got.Header().Get("Content-Type"))
		require.Equal(t, "nosniff", got.Header().Get("X-Content-Type-Options"))
	}
}

func TestExportAccounts_UsesExporterFormat(t *testing.T) {
	svc := &mocks.AccountServiceMock{ExportAccountsFn: func(ctx context.Context, f *ledger.AccountFilter) (*ledger.ExportFile, error) {
		return &ledger.ExportFile{Data: []byte("a,b\n"), ContentType: "text/csv", Extension: ".csv"}, nil
	}}
	s := newTestServer(t, httpserver.ServerDeps{AccountService: svc})

	rec := do(t, s, http.MethodGet, "/api/accounts/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), `.csv"`)
	require.Equal(t, "a,b\n", rec.Body.String())
}
