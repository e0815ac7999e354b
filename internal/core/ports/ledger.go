package ports

import (
	"context"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
)

// AccountRepository defines the interface for ledger record persistence
type AccountRepository interface {
	Create(ctx context.Context, a *ledger.Account) error
	GetByID(ctx context.Context, id int64) (*ledger.Account, error)
	Update(ctx context.Context, a *ledger.Account) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, error)
	Count(ctx context.Context, filter *ledger.AccountFilter) (int, error)
	Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error)
}

// AccountService defines the ledger use cases exposed over HTTP
type AccountService interface {
	CreateAccount(ctx context.Context, req *ledger.CreateAccountRequest) (*ledger.Account, error)
	BatchCreateAccounts(ctx context.Context, reqs []*ledger.CreateAccountRequest) (*ledger.BatchResult, error)
	GetAccount(ctx context.Context, id int64) (*ledger.Account, error)
	UpdateAccount(ctx context.Context, id int64, req *ledger.UpdateAccountRequest) (*ledger.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	ListAccounts(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, int, error)
	Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error)
	ExportAccounts(ctx context.Context, filter *ledger.AccountFilter) (*ledger.ExportFile, error)
}

// AccountExporter renders ledger records into a downloadable document.
type AccountExporter interface {
	ContentType() string
	FileExtension() string
	Export(accounts []*ledger.Account, summary *ledger.Summary) ([]byte, error)
}
