package rbac

import "time"

// Role represents a named bundle of permissions. Role names are unique and
// immutable after creation; renaming is a delete and recreate.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability keyed as <resource>.<action>.
type Permission struct {
	ID          int64
	Code        string
	Description string
}

// Permission codes. The catalog is the single source of truth for these keys;
// no other package spells them out as literals.
const (
	PermClientRead    = "client.read"
	PermClientWrite   = "client.write"
	PermContractRead  = "contract.read"
	PermContractWrite = "contract.write"
	PermEventRead     = "event.read"
	PermEventWrite    = "event.write"
	PermUserManage    = "user.manage"
	PermRBACManage    = "rbac.manage"
)

// Baseline role names.
const (
	RoleGestion    = "gestion"
	RoleCommercial = "commercial"
	RoleSupport    = "support"
)

type seedPermission struct {
	code        string
	description string
}

var defaultPermissions = []seedPermission{
	{PermClientRead, "Read client records"},
	{PermClientWrite, "Create or update client records"},
	{PermContractRead, "Read contract records"},
	{PermContractWrite, "Create, update or sign contracts"},
	{PermEventRead, "Read event records"},
	{PermEventWrite, "Create or update events"},
	{PermUserManage, "Create, deactivate and administer collaborator accounts"},
	{PermRBACManage, "Change role assignments and role permission grants"},
}

var defaultRoles = map[string][]string{
	RoleGestion: {
		PermClientRead, PermClientWrite,
		PermContractRead, PermContractWrite,
		PermEventRead, PermEventWrite,
		PermUserManage, PermRBACManage,
	},
	RoleCommercial: {
		PermClientRead, PermClientWrite,
		PermContractRead, PermContractWrite,
		PermEventRead, PermEventWrite,
	},
	RoleSupport: {
		PermClientRead, PermContractRead,
		PermEventRead, PermEventWrite,
	},
}
