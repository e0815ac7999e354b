// Package export renders ledger records as spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const sheetName = "账单"

var headers = []string{"ID", "客户姓名", "联系电话", "金额", "付款状态", "商品描述", "日期", "凭证", "创建时间"}

type XLSXExporter struct{}

var _ ports.AccountExporter = XLSXExporter{}

func NewXLSXExporter() XLSXExporter { return XLSXExporter{} }

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) FileExtension() string { return ".xlsx" }

// Export writes one row per account followed by a totals block.
func (XLSXExporter) Export(accounts []*ledger.Account, summary *ledger.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	for i, a := range accounts {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		image := ""
		if a.ImageURL != nil {
			image = *a.ImageURL
		}
		values := []interface{}{
			a.ID, a.CustomerName, a.Phone, a.Amount, paidLabel(a.IsPaid),
			a.ItemDescription, a.AccountDate, image, a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		amountCell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(sheetName, amountCell, amountCell, money); err != nil {
			return nil, fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if summary != nil {
		start := len(accounts) + 3
		totals := [][]interface{}{
			{"记录数", summary.Count},
			{"总金额", summary.TotalAmount},
			{"未付笔数", summary.UnpaidCount},
			{"未付金额", summary.UnpaidAmount},
		}
		for i, t := range totals {
			cell, _ := excelize.CoordinatesToCellName(1, start+i)
			if err := f.SetSheetRow(sheetName, cell, &t); err != nil {
				return nil, fmt.Errorf("write totals: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "B", "B", 14)
	_ = f.SetColWidth(sheetName, "F", "F", 30)
	_ = f.SetColWidth(sheetName, "H", "I", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func paidLabel(paid bool) string {
	if paid {
		return "已付款"
	}
	return "未付款"
}
