// Package manager hosts the top-level orchestrators: the EnvManager,
// which owns the singleton default environment, and the ProjectsManager,
// which owns the project collection. Both rebuild their containers from
// durable records at start and drive their lifecycles.
package manager

// Accounts resolves owner usernames. Project creation refuses owners
// the collaborator does not know.
type Accounts interface {
	Exists(username string) bool
}

// StaticAccounts is a fixed account set, typically loaded from the
// bootstrap config.
type StaticAccounts struct {
	usernames map[string]struct{}
}

// NewStaticAccounts creates an account set from a list of usernames
func NewStaticAccounts(usernames ...string) *StaticAccounts {
	set := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		set[name] = struct{}{}
	}
	return &StaticAccounts{usernames: set}
}

// Exists reports whether the username is a known account
func (a *StaticAccounts) Exists(username string) bool {
	_, ok := a.usernames[username]
	return ok
}
