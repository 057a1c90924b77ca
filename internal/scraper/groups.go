package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// ParseGroups reads the group selector. With nothing selected the current
// group is the no-group sentinel.
func ParseGroups(html string) (*GroupList, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ParseGroups: parse html: %w", err)
	}
	sel := doc.Find(groupSelectSelector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("ParseGroups: %s not found", groupSelectSelector)
	}

	list := &GroupList{CurrentID: domain.NoGroupID}
	seen := map[string]bool{}
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		id := attr(opt, "value")
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		name := text(opt)
		if id == domain.NoGroupID && name == "" {
			name = domain.NoGroupName
		}
		list.Groups = append(list.Groups, domain.Group{ID: id, Name: name})
		if _, selected := opt.Attr("selected"); selected {
			list.CurrentID = id
		}
	})

	if !seen[domain.NoGroupID] {
		list.Groups = append([]domain.Group{{ID: domain.NoGroupID, Name: domain.NoGroupName}}, list.Groups...)
	}
	for i := range list.Groups {
		list.Groups[i].IsCurrent = list.Groups[i].ID == list.CurrentID
	}
	return list, nil
}

// Current returns the selected group.
func (l *GroupList) Current() domain.Group {
	for _, g := range l.Groups {
		if g.ID == l.CurrentID {
			return g
		}
	}
	return domain.Group{ID: domain.NoGroupID, Name: domain.NoGroupName, IsCurrent: true}
}
