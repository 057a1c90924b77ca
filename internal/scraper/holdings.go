package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// ParsePortfolio reads the asset sections of the portfolio page. Each section
// is one asset category; a page without sections yields no rows.
func ParsePortfolio(html string) ([]HoldingRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParsePortfolio: parse html: %w", err)
	}

	var rows []HoldingRow
	doc.Find(portfolioSectionSelector).Each(func(_ int, section *goquery.Selection) {
		category := attr(section, "data-category")
		if category == "" {
			category = text(section.Find("h1, h2").First())
		}

		section.Find(portfolioRowSelector).Each(func(_ int, tr *goquery.Selection) {
			name := text(tr.Find("td.name"))
			if name == "" {
				return
			}
			rows = append(rows, HoldingRow{
				MfID:              attr(tr, "data-mf-id"),
				AccountName:       text(tr.Find("td.account")),
				Name:              name,
				Code:              text(tr.Find("td.code")),
				Category:          category,
				Type:              domain.HoldingTypeAsset,
				Amount:            ParseYen(text(tr.Find("td.amount"))),
				Quantity:          ParseFloat(text(tr.Find("td.quantity"))),
				UnitPrice:         ParseFloat(text(tr.Find("td.unit-price"))),
				AvgCostPrice:      ParseFloat(text(tr.Find("td.avg-cost"))),
				DailyChange:       ParseYen(text(tr.Find("td.daily-change"))),
				UnrealizedGain:    ParseYen(text(tr.Find("td.unrealized-gain"))),
				UnrealizedGainPct: ParsePercent(text(tr.Find("td.unrealized-gain-pct"))),
			})
		})
	})
	return rows, nil
}

// ParseLiabilities reads the liability table. A page without one (no debts) yields no rows.
func ParseLiabilities(html string) ([]HoldingRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseLiabilities: parse html: %w", err)
	}

	var rows []HoldingRow
	doc.Find(liabilityRowSelector).Each(func(_ int, tr *goquery.Selection) {
		name := text(tr.Find("td.name"))
		if name == "" {
			return
		}
		rows = append(rows, HoldingRow{
			MfID:              attr(tr, "data-mf-id"),
			AccountName:       text(tr.Find("td.account")),
			Name:              name,
			Type:              domain.HoldingTypeLiability,
			LiabilityCategory: text(tr.Find("td.category")),
			Amount:            ParseYen(text(tr.Find("td.amount"))),
		})
	})
	return rows, nil
}
