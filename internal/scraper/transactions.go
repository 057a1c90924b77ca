package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// transferPattern matches descriptions of fund movements between own accounts.
var transferPattern = regexp.MustCompile(`(?i)振替|振込|送金|チャージ|引落|引き落とし|transfer`)

// IsTransfer classifies a cash-flow row. A row is a transfer when it has no
// category and its description looks like a transfer, or when the source
// marks it as one. A missing category on its own is not enough.
func IsTransfer(category, description string, hasMarker bool) bool {
	if hasMarker {
		return true
	}
	return category == "" && transferPattern.MatchString(description)
}

// ParseTransactions reads the cash-flow table. Rows without an id or a
// readable date cannot be reconciled and are dropped.
func ParseTransactions(html string) ([]TransactionRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseTransactions: parse html: %w", err)
	}
	if doc.Find(cashFlowTableSelector).Length() == 0 {
		return nil, fmt.Errorf("ParseTransactions: %s not found", cashFlowTableSelector)
	}

	var rows []TransactionRow
	doc.Find(cashFlowRowSelector).Each(func(_ int, tr *goquery.Selection) {
		mfID := attr(tr.Find(transactionIDSelector), "value")
		date, ok := parseSortableDate(attr(tr.Find("td.date"), "data-table-sortable-value"))
		if mfID == "" || !ok {
			return
		}

		amount := ParseYen(text(tr.Find("td.amount")))
		if amount == nil {
			return
		}

		category := text(tr.Find("td.lctg"))
		subCategory := text(tr.Find("td.mctg"))
		if category == "未分類" || category == "-" {
			category = ""
		}
		if subCategory == "未分類" || subCategory == "-" {
			subCategory = ""
		}
		description := text(tr.Find("td.content"))
		hasMarker := tr.Find(transferMarkerSelector).Length() > 0
		isTransfer := IsTransfer(category, description, hasMarker)

		accountCell := tr.Find("td.note.calc").Clone()
		target := text(accountCell.Find(transferTargetSelector))
		accountCell.Find(transferTargetSelector).Remove()

		rows = append(rows, TransactionRow{
			MfID:           mfID,
			Date:           date,
			AccountName:    strings.TrimSpace(strings.Trim(text(accountCell), "→")),
			Category:       category,
			SubCategory:    subCategory,
			Description:    description,
			Amount:         *amount,
			IsTransfer:     isTransfer,
			IsExcluded:     isTransfer || tr.HasClass(grayoutClass),
			TransferTarget: target,
			Type:           domain.ClassifyTransaction(isTransfer, *amount),
		})
	})
	return rows, nil
}

// parseSortableDate reads values like "2024/01/15-000123".
func parseSortableDate(v string) (civil.Date, bool) {
	if len(v) < 10 {
		return civil.Date{}, false
	}
	t, err := time.Parse("2006/01/02", v[:10])
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}
