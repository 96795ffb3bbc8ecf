package entity

type scopeKind int

const (
	scopePending scopeKind = iota
	scopeAll
	scopeOwner
)

// Scope is the owner filter of a lead query. The zero value is pending: the
// caller's identity is not known yet and nothing may be queried with it.
type Scope struct {
	kind    scopeKind
	ownerID string
}

func AllLeads() Scope {
	return Scope{kind: scopeAll}
}

func OwnedBy(ownerID string) Scope {
	if ownerID == "" {
		return Scope{}
	}
	return Scope{kind: scopeOwner, ownerID: ownerID}
}

// ScopeFor derives the visibility of an account: admins see every lead,
// everyone else only their own. A nil account yields a pending scope.
func ScopeFor(acc *Account) Scope {
	if acc == nil {
		return Scope{}
	}
	if acc.Role == RoleAdmin {
		return AllLeads()
	}
	return OwnedBy(acc.ID)
}

func (s Scope) Resolved() bool  { return s.kind != scopePending }
func (s Scope) All() bool       { return s.kind == scopeAll }
func (s Scope) OwnerID() string { return s.ownerID }

func (s Scope) Includes(l Lead) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeOwner:
		return l.SalesID == s.ownerID
	}
	return false
}

func (s Scope) String() string {
	switch s.kind {
	case scopeAll:
		return "all"
	case scopeOwner:
		return "owner:" + s.ownerID
	}
	return "pending"
}
