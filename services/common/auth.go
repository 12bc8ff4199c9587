package common

type AuthLevel int

const (
	AuthUser AuthLevel = iota
	AuthAdmin
	AuthSystem
)

// Authorization is the caller identity passed explicitly into the pick ledger
// and result resolver. Privilege is never inferred from the call site.
// Callers must only build an Admin authorization after their own permission
// check has passed.
type Authorization struct {
	ActorID *uint
	Level   AuthLevel
}

func User(userID uint) Authorization {
	return Authorization{ActorID: &userID, Level: AuthUser}
}

func Admin(userID uint) Authorization {
	return Authorization{ActorID: &userID, Level: AuthAdmin}
}

func System() Authorization {
	return Authorization{Level: AuthSystem}
}

// Override reports whether deadline and elimination checks are bypassed.
func (a Authorization) Override() bool {
	return a.Level == AuthAdmin || a.Level == AuthSystem
}

func (a Authorization) IsAdmin() bool {
	return a.Level == AuthAdmin
}
