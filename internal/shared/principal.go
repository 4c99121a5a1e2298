package shared

// Principal is the authorization context for one request: the freshly loaded
// account plus the flattened permission set its role grants. Built by the
// resolver on every request and discarded afterwards; never cached across
// requests so a mid-session demotion takes effect on the next call.
type Principal struct {
	ID          int64
	Email       string
	FullName    string
	Role        string
	permissions map[string]struct{}
}

// NewPrincipal builds a Principal carrying the given permission codes.
func NewPrincipal(id int64, email, fullName, role string, perms []string) *Principal {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return &Principal{ID: id, Email: email, FullName: fullName, Role: role, permissions: set}
}

// Can reports whether the principal holds the permission code.
func (p *Principal) Can(code string) bool {
	if p == nil {
		return false
	}
	_, ok := p.permissions[code]
	return ok
}

// Permissions returns a copy of the granted permission codes.
func (p *Principal) Permissions() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.permissions))
	for code := range p.permissions {
		out = append(out, code)
	}
	return out
}
