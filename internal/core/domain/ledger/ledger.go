package ledger

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage format of AccountDate.
const DateLayout = "2006-01-02"

var ErrAccountNotFound = errors.New("account not found")

type Account struct {
	ID              int64     `json:"id" db:"id"`
	CustomerName    string    `json:"customer_name" db:"customer_name"`
	Phone           string    `json:"phone" db:"phone"`
	Amount          float64   `json:"amount" db:"amount"`
	IsPaid          bool      `json:"is_paid" db:"is_paid"`
	ItemDescription string    `json:"item_description" db:"item_description"`
	AccountDate     string    `json:"account_date" db:"account_date"`
	ImageURL        *string   `json:"image_url" db:"image_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// CreateAccountRequest represents the request to create a ledger record
type CreateAccountRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required,max=100"`
	Phone           string  `json:"phone" validate:"max=20"`
	Amount          float64 `json:"amount" validate:"gte=0"`
	IsPaid          bool    `json:"is_paid"`
	ItemDescription string  `json:"item_description" validate:"required"`
	AccountDate     string  `json:"account_date" validate:"omitempty,datetime=2006-01-02"`
	ImageURL        *string `json:"image_url"`
}

// UpdateAccountRequest represents a partial update; nil fields are left untouched.
type UpdateAccountRequest struct {
	CustomerName    *string  `json:"customer_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	Amount          *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	IsPaid          *bool    `json:"is_paid,omitempty"`
	ItemDescription *string  `json:"item_description,omitempty" validate:"omitempty,min=1"`
	AccountDate     *string  `json:"account_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ImageURL        *string  `json:"image_url,omitempty"`
}

// Apply copies the non-nil fields onto a.
func (r *UpdateAccountRequest) Apply(a *Account) {
	if r.CustomerName != nil {
		a.CustomerName = *r.CustomerName
	}
	if r.Phone != nil {
		a.Phone = *r.Phone
	}
	if r.Amount != nil {
		a.Amount = *r.Amount
	}
	if r.IsPaid != nil {
		a.IsPaid = *r.IsPaid
	}
	if r.ItemDescription != nil {
		a.ItemDescription = *r.ItemDescription
	}
	if r.AccountDate != nil {
		a.AccountDate = *r.AccountDate
	}
	if r.ImageURL != nil {
		if *r.ImageURL == "" {
			a.ImageURL = nil
		} else {
			a.ImageURL = r.ImageURL
		}
	}
}

// AccountFilter narrows list, summary and export queries.
type AccountFilter struct {
	Keyword   string `query:"keyword" json:"keyword,omitempty"`
	StartDate string `query:"startDate" json:"start_date,omitempty"`
	EndDate   string `query:"endDate" json:"end_date,omitempty"`
	IsPaid    *bool  `query:"isPaid" json:"is_paid,omitempty"`
	Limit     int    `query:"limit" json:"limit"`
	Offset    int    `query:"offset" json:"offset"`
}

// Summary aggregates the accounts matching a filter.
type Summary struct {
	Count        int     `json:"count" db:"count"`
	TotalAmount  float64 `json:"total_amount" db:"total_amount"`
	UnpaidCount  int     `json:"unpaid_count" db:"unpaid_count"`
	UnpaidAmount float64 `json:"unpaid_amount" db:"unpaid_amount"`
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Data        []byte
	ContentType string
	Extension   string
}

// BatchResult reports the outcome of a batch create.
type BatchResult struct {
	Created []*Account `json:"created"`
	Success int        `json:"success_count"`
	Failed  int        `json:"fail_count"`
}

// ExtractedAccount holds the fields a model managed to recognise. Missing
// fields stay nil and are omitted from JSON.
type ExtractedAccount struct {
	CustomerName    *string  `json:"customer_name,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	ItemDescription *string  `json:"item_description,omitempty"`
	IsPaid          *bool    `json:"is_paid,omitempty"`
	AccountDate     *string  `json:"account_date,omitempty"`
}

// ExtractedFromMap converts a loosely typed model reply into an ExtractedAccount.
func ExtractedFromMap(m map[string]any) ExtractedAccount {
	var e ExtractedAccount
	if s, ok := stringField(m, "customer_name"); ok {
		e.CustomerName = &s
	}
	if s, ok := stringField(m, "phone"); ok {
		e.Phone = &s
	}
	if s, ok := stringField(m, "item_description"); ok {
		e.ItemDescription = &s
	}
	if s, ok := stringField(m, "account_date"); ok {
		e.AccountDate = &s
	}
	if v, ok := m["amount"]; ok {
		if f, ok := NormalizeAmount(v); ok {
			e.Amount = &f
		}
	}
	if v, ok := m["is_paid"]; ok && v != nil {
		b := NormalizePaid(v)
		e.IsPaid = &b
	}
	return e
}

// NormalizePaid maps model output such as true, "true" or "已付款" onto a bool.
func NormalizePaid(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.TrimSpace(t) {
		case "true", "已付款", "已付":
			return true
		}
	}
	return false
}

// NormalizeAmount accepts numbers and numeric strings ("1,200", "1200元").
func NormalizeAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimSuffix(s, "元")
		s = strings.TrimSuffix(s, "块钱")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "¥")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// BatchCreateRequest carries rows recognised from one receipt image. Rows are
// validated one by one so a bad row does not sink the batch.
type BatchCreateRequest struct {
	Accounts []*CreateAccountRequest `json:"accounts" validate:"required,min=1,max=100"`
}
