// Package auth implements the static user allow-list gate.
package auth

// Allowlist is the set of Telegram user IDs permitted to use the bot.
// It is built once at startup and read-only afterwards, so it is safe
// for concurrent use without locking.
type Allowlist struct {
	ids map[int64]struct{}
}

// NewAllowlist builds an allow-list from the configured user IDs.
func NewAllowlist(ids []int64) *Allowlist {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &Allowlist{ids: set}
}

// Allowed reports whether the given user may use the bot.
func (a *Allowlist) Allowed(userID int64) bool {
	_, ok := a.ids[userID]
	return ok
}

// Len returns the number of allow-listed users.
func (a *Allowlist) Len() int {
	return len(a.ids)
}
