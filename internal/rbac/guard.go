package rbac

import (
	"github.com/meridian-crm/meridian-crm/internal/observability"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Guard is the enforcement point every business operation passes through
// before touching storage. It is a pure membership check over the flattened
// permission set carried by the principal: no role is special-cased and no
// caller is exempt, including a principal operating on its own account.
type Guard struct {
	metrics *observability.Metrics
}

// NewGuard constructs a Guard. The metrics parameter may be nil.
func NewGuard(metrics *observability.Metrics) *Guard {
	return &Guard{metrics: metrics}
}

// Require allows the call iff the principal holds the permission code.
func (g *Guard) Require(p *shared.Principal, code string) error {
	if p == nil || !p.Can(code) {
		g.record(code, "deny")
		return shared.ErrPermissionDenied
	}
	g.record(code, "allow")
	return nil
}

// RequireAny allows the call iff the principal holds at least one of codes.
func (g *Guard) RequireAny(p *shared.Principal, codes ...string) error {
	for _, code := range codes {
		if p != nil && p.Can(code) {
			g.record(code, "allow")
			return nil
		}
	}
	for _, code := range codes {
		g.record(code, "deny")
	}
	return shared.ErrPermissionDenied
}

func (g *Guard) record(code, result string) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.RecordGuardDecision(code, result)
}
