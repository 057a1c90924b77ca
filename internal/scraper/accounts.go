package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// ParseAccounts reads the registered-accounts table.
// Accounts without institution or category are kept with empty fields.
func ParseAccounts(html string) ([]Account, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseAccounts: parse html: %w", err)
	}
	if doc.Find(accountTableSelector).Length() == 0 {
		return nil, fmt.Errorf("ParseAccounts: %s not found", accountTableSelector)
	}

	// non-nil even when empty: nil means "not extracted" downstream
	accounts := []Account{}
	doc.Find(accountRowSelector).Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.account-name a").First()
		name := text(link)
		mfID := strings.TrimPrefix(attr(link, "href"), accountLinkPrefix)
		if mfID == "" || strings.Contains(mfID, "/") {
			mfID = attr(row, "id")
		}
		if mfID == "" || name == "" {
			return
		}

		statusCell := row.Find("td.account-status")
		accounts = append(accounts, Account{
			MfID:           mfID,
			Name:           name,
			ConnectionType: text(row.Find(".connection-type")),
			Institution:    text(row.Find("td.institution")),
			Category:       text(row.Find("td.category")),
			Status:         parseAccountStatus(statusCell),
			TotalAssets:    ParseYen(text(row.Find("td.amount"))),
			LastUpdated:    strings.Trim(text(statusCell.Find(".last-updated")), "()（）"),
			ErrorMessage:   text(statusCell.Find(".error-message")),
		})
	})
	return accounts, nil
}

func parseAccountStatus(cell *goquery.Selection) domain.AccountStatus {
	s := cell.Text()
	switch {
	case cell.Find(".status-error").Length() > 0 || strings.Contains(s, "エラー"):
		return domain.AccountStatusError
	case cell.Find(".status-updating").Length() > 0 || strings.Contains(s, "更新中"):
		return domain.AccountStatusUpdating
	default:
		return domain.AccountStatusOK
	}
}

// anyUpdating reports whether an aggregation refresh is still running.
func anyUpdating(accounts []Account) bool {
	for _, a := range accounts {
		if a.Status == domain.AccountStatusUpdating {
			return true
		}
	}
	return false
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}
