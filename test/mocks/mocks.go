package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/domain/auth"
	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
)

// AccountRepositoryMock is a lightweight mock for AccountRepository
type AccountRepositoryMock struct {
	CreateFn    func(ctx context.Context, a *ledger.Account) error
	GetByIDFn   func(ctx context.Context, id int64) (*ledger.Account, error)
	UpdateFn    func(ctx context.Context, a *ledger.Account) error
	DeleteFn    func(ctx context.Context, id int64) error
	ListFn      func(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, error)
	CountFn     func(ctx context.Context, filter *ledger.AccountFilter) (int, error)
	SummarizeFn func(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error)
}

func (m *AccountRepositoryMock) Create(ctx context.Context, a *ledger.Account) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}
func (m *AccountRepositoryMock) GetByID(ctx context.Context, id int64) (*ledger.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ledger.ErrAccountNotFound
}
func (m *AccountRepositoryMock) Update(ctx context.Context, a *ledger.Account) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, a)
	}
	return nil
}
func (m *AccountRepositoryMock) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}
func (m *AccountRepositoryMock) List(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return []*ledger.Account{}, nil
}
func (m *AccountRepositoryMock) Count(ctx context.Context, filter *ledger.AccountFilter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, filter)
	}
	return 0, nil
}
func (m *AccountRepositoryMock) Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, filter)
	}
	return &ledger.Summary{}, nil
}

// AccountServiceMock is a lightweight mock for AccountService
type AccountServiceMock struct {
	CreateAccountFn       func(ctx context.Context, req *ledger.CreateAccountRequest) (*ledger.Account, error)
	BatchCreateAccountsFn func(ctx context.Context, reqs []*ledger.CreateAccountRequest) (*ledger.BatchResult, error)
	GetAccountFn          func(ctx context.Context, id int64) (*ledger.Account, error)
	UpdateAccountFn       func(ctx context.Context, id int64, req *ledger.UpdateAccountRequest) (*ledger.Account, error)
	DeleteAccountFn       func(ctx context.Context, id int64) error
	ListAccountsFn        func(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, int, error)
	SummarizeFn           func(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error)
	ExportAccountsFn      func(ctx context.Context, filter *ledger.AccountFilter) (*ledger.ExportFile, error)
}

func (m *AccountServiceMock) CreateAccount(ctx context.Context, req *ledger.CreateAccountRequest) (*ledger.Account, error) {
	if m.CreateAccountFn != nil {
		return m.CreateAccountFn(ctx, req)
	}
	return &ledger.Account{ID: 1, CustomerName: req.CustomerName, Amount: req.Amount}, nil
}
func (m *AccountServiceMock) BatchCreateAccounts(ctx context.Context, reqs []*ledger.CreateAccountRequest) (*ledger.BatchResult, error) {
	if m.BatchCreateAccountsFn != nil {
		return m.BatchCreateAccountsFn(ctx, reqs)
	}
	return &ledger.BatchResult{Success: len(reqs)}, nil
}
func (m *AccountServiceMock) GetAccount(ctx context.Context, id int64) (*ledger.Account, error) {
	if m.GetAccountFn != nil {
		return m.GetAccountFn(ctx, id)
	}
	return nil, ledger.ErrAccountNotFound
}
func (m *AccountServiceMock) UpdateAccount(ctx context.Context, id int64, req *ledger.UpdateAccountRequest) (*ledger.Account, error) {
	if m.UpdateAccountFn != nil {
		return m.UpdateAccountFn(ctx, id, req)
	}
	return nil, ledger.ErrAccountNotFound
}
func (m *AccountServiceMock) DeleteAccount(ctx context.Context, id int64) error {
	if m.DeleteAccountFn != nil {
		return m.DeleteAccountFn(ctx, id)
	}
	return nil
}
func (m *AccountServiceMock) ListAccounts(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, int, error) {
	if m.ListAccountsFn != nil {
		return m.ListAccountsFn(ctx, filter)
	}
	return []*ledger.Account{}, 0, nil
}
func (m *AccountServiceMock) Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, filter)
	}
	return &ledger.Summary{}, nil
}
func (m *AccountServiceMock) ExportAccounts(ctx context.Context, filter *ledger.AccountFilter) (*ledger.ExportFile, error) {
	if m.ExportAccountsFn != nil {
		return m.ExportAccountsFn(ctx, filter)
	}
	return &ledger.ExportFile{Data: []byte("xlsx"), ContentType: "application/octet-stream", Extension: ".bin"}, nil
}

// ExporterMock records what it was asked to render.
type ExporterMock struct {
	ExportFn func(accounts []*ledger.Account, summary *ledger.Summary) ([]byte, error)
}

func (m *ExporterMock) ContentType() string   { return "application/octet-stream" }
func (m *ExporterMock) FileExtension() string { return ".bin" }
func (m *ExporterMock) Export(accounts []*ledger.Account, summary *ledger.Summary) ([]byte, error) {
	if m.ExportFn != nil {
		return m.ExportFn(accounts, summary)
	}
	return []byte(fmt.Sprintf("%d rows", len(accounts))), nil
}

// CacheMock is an in-memory ports.Cache that ignores TTLs.
type CacheMock struct {
	mu    sync.Mutex
	Data  map[string][]byte
	Gets  int
	Hits  int
	GetFn func(ctx context.Context, key string) ([]byte, bool, error)
}

func NewCacheMock() *CacheMock { return &CacheMock{Data: map[string][]byte{}} }

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	v, ok := m.Data[key]
	if ok {
		m.Hits++
	}
	return v, ok, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	return nil
}
func (m *CacheMock) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Data, k)
	}
	return nil
}
func (m *CacheMock) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Data[key]
	return ok
}

// ObjectStorageMock is a lightweight mock for ObjectStorage
type ObjectStorageMock struct {
	PutObjectFn    func(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	PingFn         func(ctx context.Context) error
}

func (m *ObjectStorageMock) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.PutObjectFn != nil {
		return m.PutObjectFn(ctx, key, data, contentType)
	}
	return key, nil
}
func (m *ObjectStorageMock) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.PresignedURLFn != nil {
		return m.PresignedURLFn(ctx, key, expiry)
	}
	return "https://bucket.example/" + key, nil
}
func (m *ObjectStorageMock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// UploadServiceMock is a lightweight mock for UploadService
type UploadServiceMock struct {
	UploadImageFn      func(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error)
	UploadAudioFn      func(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error)
	TakeTempAudioFn    func(id string) ([]byte, error)
	TempImageFn        func(id string) ([]byte, string, error)
	HasObjectStorageFn func() bool
}

func (m *UploadServiceMock) UploadImage(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error) {
	if m.UploadImageFn != nil {
		return m.UploadImageFn(ctx, data, fileName, mimeType, baseURL)
	}
	return &asset.UploadResult{Key: "k", URL: baseURL + "/k"}, nil
}
func (m *UploadServiceMock) UploadAudio(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error) {
	if m.UploadAudioFn != nil {
		return m.UploadAudioFn(ctx, data, fileName, mimeType, baseURL)
	}
	return &asset.UploadResult{Key: "k", URL: baseURL + "/k"}, nil
}
func (m *UploadServiceMock) TakeTempAudio(id string) ([]byte, error) {
	if m.TakeTempAudioFn != nil {
		return m.TakeTempAudioFn(id)
	}
	return nil, asset.ErrNotFound
}
func (m *UploadServiceMock) TempImage(id string) ([]byte, string, error) {
	if m.TempImageFn != nil {
		return m.TempImageFn(id)
	}
	return nil, "", asset.ErrNotFound
}
func (m *UploadServiceMock) HasObjectStorage() bool {
	if m.HasObjectStorageFn != nil {
		return m.HasObjectStorageFn()
	}
	return false
}

// SpeechRecognizerMock is a lightweight mock for SpeechRecognizer
type SpeechRecognizerMock struct {
	RecognizeFn func(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error)
}

func (m *SpeechRecognizerMock) Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error) {
	if m.RecognizeFn != nil {
		return m.RecognizeFn(ctx, src)
	}
	return &asset.Transcript{}, nil
}

// SpeechServiceMock is a lightweight mock for SpeechService
type SpeechServiceMock struct {
	RecognizeFn  func(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error)
	ConfiguredFn func() bool
}

func (m *SpeechServiceMock) Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error) {
	if m.RecognizeFn != nil {
		return m.RecognizeFn(ctx, src)
	}
	return &asset.Transcript{}, nil
}
func (m *SpeechServiceMock) Configured() bool {
	if m.ConfiguredFn != nil {
		return m.ConfiguredFn()
	}
	return true
}

// ChatModelMock is a lightweight mock for ChatModel
type ChatModelMock struct {
	CompleteFn func(ctx context.Context, model string, messages []ports.ChatMessage) (string, error)
}

func (m *ChatModelMock) Complete(ctx context.Context, model string, messages []ports.ChatMessage) (string, error) {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, model, messages)
	}
	return "{}", nil
}

// ExtractionServiceMock is a lightweight mock for ExtractionService
type ExtractionServiceMock struct {
	ParseVoiceFn func(ctx context.Context, text string) (*ledger.ExtractedAccount, error)
	ParseImageFn func(ctx context.Context, imageURL, imageBase64, mimeType string) ([]ledger.ExtractedAccount, error)
}

func (m *ExtractionServiceMock) ParseVoice(ctx context.Context, text string) (*ledger.ExtractedAccount, error) {
	if m.ParseVoiceFn != nil {
		return m.ParseVoiceFn(ctx, text)
	}
	return &ledger.ExtractedAccount{}, nil
}
func (m *ExtractionServiceMock) ParseImage(ctx context.Context, imageURL, imageBase64, mimeType string) ([]ledger.ExtractedAccount, error) {
	if m.ParseImageFn != nil {
		return m.ParseImageFn(ctx, imageURL, imageBase64, mimeType)
	}
	return []ledger.ExtractedAccount{}, nil
}

// AuthServiceMock is a lightweight mock for AuthService
type AuthServiceMock struct {
	EnabledFn       func() bool
	IssueTokenFn    func(ctx context.Context, subject string, ttl time.Duration) (*auth.IssuedToken, error)
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (m *AuthServiceMock) Enabled() bool {
	if m.EnabledFn != nil {
		return m.EnabledFn()
	}
	return true
}
func (m *AuthServiceMock) IssueToken(ctx context.Context, subject string, ttl time.Duration) (*auth.IssuedToken, error) {
	if m.IssueTokenFn != nil {
		return m.IssueTokenFn(ctx, subject, ttl)
	}
	return &auth.IssuedToken{Token: "t", Subject: subject}, nil
}
func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, clientKey string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, clientKey string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, clientKey)
	}
	return true, 1, 1, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, clientKey, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// HealthCheckerMock is a lightweight mock for HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

var (
	_ ports.AccountRepository   = (*AccountRepositoryMock)(nil)
	_ ports.AccountService      = (*AccountServiceMock)(nil)
	_ ports.AccountExporter     = (*ExporterMock)(nil)
	_ ports.Cache               = (*CacheMock)(nil)
	_ ports.ObjectStorage       = (*ObjectStorageMock)(nil)
	_ ports.UploadService       = (*UploadServiceMock)(nil)
	_ ports.SpeechRecognizer    = (*SpeechRecognizerMock)(nil)
	_ ports.SpeechService       = (*SpeechServiceMock)(nil)
	_ ports.ChatModel           = (*ChatModelMock)(nil)
	_ ports.ExtractionService   = (*ExtractionServiceMock)(nil)
	_ ports.AuthService         = (*AuthServiceMock)(nil)
	_ ports.RateLimiterService  = (*RateLimiterServiceMock)(nil)
	_ ports.RateLimitRepository = (*RateLimitRepositoryMock)(nil)
	_ ports.HealthChecker       = (*HealthCheckerMock)(nil)
)
