package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const maxExportRows = 10000

type AccountService struct {
	repo     ports.AccountRepository
	exporter ports.AccountExporter
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

func NewAccountService(repo ports.AccountRepository, exporter ports.AccountExporter, logger *logrus.Logger) ports.AccountService {
	return &AccountService{
		repo:     repo,
		exporter: exporter,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req *ledger.CreateAccountRequest) (*ledger.Account, error) {
	a := s.newAccount(req)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"account_id": a.ID, "amount": a.Amount}).Info("account created")
	}
	return a, nil
}

// BatchCreateAccounts inserts each row independently and reports how many
// succeeded. Invalid rows are counted as failures and skipped.
func (s *AccountService) BatchCreateAccounts(ctx context.Context, reqs []*ledger.CreateAccountRequest) (*ledger.BatchResult, error) {
	res := &ledger.BatchResult{Created: make([]*ledger.Account, 0, len(reqs))}
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if req == nil {
			res.Failed++
			continue
		}
		if err := s.validate.StructCtx(ctx, req); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"row": i}).WithError(err).Warn("batch row rejected")
			}
			res.Failed++
			continue
		}
		a := s.newAccount(req)
		if err := s.repo.Create(ctx, a); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"row": i}).WithError(err).Error("batch row insert failed")
			}
			res.Failed++
			continue
		}
		res.Created = append(res.Created, a)
		res.Success++
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"success": res.Success, "failed": res.Failed}).Info("batch create finished")
	}
	return res, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*ledger.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AccountService) UpdateAccount(ctx context.Context, id int64, req *ledger.UpdateAccountRequest) (*ledger.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(a)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return a, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"account_id": id}).Info("account deleted")
	}
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, int, error) {
	accounts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	// without paging the page is the whole result
	if filter == nil || (filter.Limit <= 0 && filter.Offset <= 0) {
		return accounts, len(accounts), nil
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return accounts, total, nil
}

func (s *AccountService) Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error) {
	sum, err := s.repo.Summarize(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize accounts: %w", err)
	}
	return sum, nil
}

func (s *AccountService) ExportAccounts(ctx context.Context, filter *ledger.AccountFilter) (*ledger.ExportFile, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("export is not configured")
	}
	f := ledger.AccountFilter{}
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = maxExportRows, 0

	accounts, err := s.repo.List(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for export: %w", err)
	}
	sum, err := s.repo.Summarize(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize accounts for export: %w", err)
	}
	out, err := s.exporter.Export(accounts, sum)
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return &ledger.ExportFile{Data: out, ContentType: s.exporter.ContentType(), Extension: s.exporter.FileExtension()}, nil
}

func (s *AccountService) newAccount(req *ledger.CreateAccountRequest) *ledger.Account {
	date := req.AccountDate
	if date == "" {
		date = s.now().Format(ledger.DateLayout)
	}
	var image *string
	if req.ImageURL != nil && *req.ImageURL != "" {
		u := *req.ImageURL
		image = &u
	}
	return &ledger.Account{
		CustomerName:    req.CustomerName,
		Phone:           req.Phone,
		Amount:          req.Amount,
		IsPaid:          req.IsPaid,
		ItemDescription: req.ItemDescription,
		AccountDate:     date,
		ImageURL:        image,
	}
}
