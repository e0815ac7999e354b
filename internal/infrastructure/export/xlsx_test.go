package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/infrastructure/export"
)

func TestXLSXExporter_Export(t *testing.T) {
	img := "https://bucket/account-images/1-a.jpg"
	accounts := []*ledger.Account{
		{ID: 2, CustomerName: "老孔", Phone: "13986202020", Amount: 1500, IsPaid: true, ItemDescription: "20包饲料", AccountDate: "2025-10-15", ImageURL: &img, CreatedAt: time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)},
		{ID: 1, CustomerName: "老刘", Amount: 1200, ItemDescription: "20包饲料", AccountDate: "2025-10-14", CreatedAt: time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)},
	}
	summary := &ledger.Summary{Count: 2, TotalAmount: 2700, UnpaidCount: 1, UnpaidAmount: 1200}

	out, err := export.NewXLSXExporter().Export(accounts, summary)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("账单")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 7)
	require.Equal(t, "客户姓名", rows[0][1])
	require.Equal(t, "老孔", rows[1][1])
	require.Equal(t, "已付款", rows[1][4])
	require.Equal(t, img, rows[1][7])
	require.Equal(t, "未付款", rows[2][4])
	require.Equal(t, "记录数", rows[4][0])
	require.Equal(t, "2", rows[4][1])
}

func TestXLSXExporter_Metadata(t *testing.T) {
	e := export.NewXLSXExporter()
	require.Equal(t, ".xlsx", e.FileExtension())
	require.Contains(t, e.ContentType(), "spreadsheetml")
}
