package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// ParseSpendingTargets reads the budget editor. A group without a budget
// has no rows, which is not an error.
func ParseSpendingTargets(html string) ([]domain.SpendingTarget, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseSpendingTargets: parse html: %w", err)
	}

	var targets []domain.SpendingTarget
	doc.Find(spendingTargetRowSelector).Each(func(_ int, tr *goquery.Selection) {
		id, err := strconv.Atoi(attr(tr, "data-large-category-id"))
		if err != nil {
			return
		}
		name := text(tr.Find("td.category-name"))
		if name == "" {
			return
		}
		targets = append(targets, domain.SpendingTarget{
			LargeCategoryID: id,
			CategoryName:    name,
			Type:            spendingTargetType(tr),
		})
	})
	return targets, nil
}

func spendingTargetType(tr *goquery.Selection) domain.SpendingTargetType {
	if tr.HasClass("fixed") || strings.Contains(text(tr.Find("td.type")), "固定") {
		return domain.SpendingTargetFixed
	}
	return domain.SpendingTargetVariable
}
