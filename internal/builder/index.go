package builder

import (
	"strings"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// accountIndex resolves the account names shown on pages to mf ids.
type accountIndex struct {
	byName      map[string][]string
	unknownUsed bool
}

func newAccountIndex(accounts []domain.Account) *accountIndex {
	idx := &accountIndex{byName: map[string][]string{}}
	for _, a := range accounts {
		idx.byName[a.Name] = append(idx.byName[a.Name], a.MfID)
	}
	return idx
}

// exact returns the mf id of the only account named name, or nil when no
// account or more than one has that name.
func (x *accountIndex) exact(name string) *string {
	ids := x.byName[strings.TrimSpace(name)]
	if len(ids) != 1 {
		return nil
	}
	id := ids[0]
	return &id
}

// owner resolves the owning account of a row, falling back to the
// placeholder account.
func (x *accountIndex) owner(name string) string {
	if id := x.exact(name); id != nil {
		return *id
	}
	x.unknownUsed = true
	return domain.UnknownAccountMfID
}
