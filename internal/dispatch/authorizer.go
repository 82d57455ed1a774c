package dispatch

// Authorizer decides which users may run privileged commands. The allow-list
// is fixed at construction; an empty list authorizes nobody.
type Authorizer struct {
	admins map[int64]struct{}
}

// NewAuthorizer builds an authorizer from the configured admin user IDs.
func NewAuthorizer(adminIDs []int64) *Authorizer {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Authorizer{admins: admins}
}

// Authorized reports whether userID is on the admin allow-list.
func (a *Authorizer) Authorized(userID int64) bool {
	_, ok := a.admins[userID]
	return ok
}
