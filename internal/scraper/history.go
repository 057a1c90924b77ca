package scraper

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// ParseAssetHistory reads the daily history table. Columns after date, total
// and change are per-category amounts named by the header. A page without
// history yields no points.
func ParseAssetHistory(html string) ([]domain.AssetHistoryPoint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseAssetHistory: parse html: %w", err)
	}
	table := doc.Find(historyTableSelector)
	if table.Length() == 0 {
		return nil, nil
	}

	var categories []string
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		if i >= 3 {
			categories = append(categories, text(th))
		}
	})

	var points []domain.AssetHistoryPoint
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		date, ok := parseSlashDate(text(cells.Eq(0)))
		if !ok {
			return
		}
		total := ParseYen(text(cells.Eq(1)))
		if total == nil {
			return
		}

		point := domain.AssetHistoryPoint{Date: date, TotalAssets: *total}
		if cells.Length() > 2 {
			point.Change = yenOrZero(text(cells.Eq(2)))
		}
		for i, name := range categories {
			cell := cells.Eq(i + 3)
			if cell.Length() == 0 || name == "" {
				continue
			}
			point.Categories = append(point.Categories, domain.AssetHistoryCategory{
				Name:   name,
				Amount: yenOrZero(text(cell)),
			})
		}
		points = append(points, point)
	})
	return points, nil
}

func parseSlashDate(v string) (civil.Date, bool) {
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
