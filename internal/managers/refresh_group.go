// Package managers holds the per-provider credential resolvers: the only
// components allowed to call provider refresh endpoints. A resolver decides,
// per request, whether to use a stored OAuth record (refreshing it if
// needed) or fall back to static configuration, and returns a normalized
// credential to the caller.
package managers

import (
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RefreshGroup collapses concurrent refreshes of the same stored token into
// a single token-endpoint call. Jira refresh tokens are single-use, so two
// racing refreshes would invalidate one another without this.
type RefreshGroup struct {
	sf singleflight.Group
}

func NewRefreshGroup() *RefreshGroup {
	return &RefreshGroup{}
}

// Refresh runs fn once per in-flight key; every concurrent caller with the
// same key gets the one resulting token.
func (g *RefreshGroup) Refresh(key string, fn func() (*oauth2.Token, error)) (*oauth2.Token, error) {
	v, err, _ := g.sf.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}
