package tenant

import (
	"fmt"
	"strings"
)

// Grants decides whether an admin account may act on an entity.
type Grants interface {
	Allowed(accountID, entityID string) bool
}

// AllowAll lets every admin act on every entity.
type AllowAll struct{}

func (AllowAll) Allowed(string, string) bool { return true }

// StaticGrants is an allow-list keyed by admin account id.  An account
// mapped to "*" may act on any entity; an account without an entry may
// act on none.
type StaticGrants map[string]map[string]bool

func (g StaticGrants) Allowed(accountID, entityID string) bool {
	set, ok := g[accountID]
	if !ok {
		return false
	}
	return set["*"] || set[entityID]
}

// ParseGrants reads "acct1=e1|e2;acct2=*".  An empty string yields AllowAll.
func ParseGrants(spec string) (Grants, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return AllowAll{}, nil
	}
	out := StaticGrants{}
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		acct, list, ok := strings.Cut(part, "=")
		acct = strings.TrimSpace(acct)
		if !ok || acct == "" {
			return nil, fmt.Errorf("tenant grants: malformed entry %q", part)
		}
		set := out[acct]
		if set == nil {
			set = map[string]bool{}
			out[acct] = set
		}
		for _, e := range strings.Split(list, "|") {
			if e = strings.TrimSpace(e); e != "" {
				set[e] = true
			}
		}
	}
	return out, nil
}
