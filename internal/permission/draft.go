package permission

import "fmt"

// Draft is the working copy of an admin's role and permissions while they
// are being edited. Every edit returns a new Draft; the receiver is left
// untouched. A SUPER_ADMIN draft is locked.
type Draft struct {
	role  Role
	perms Permissions
}

func NewDraft(role Role, perms Permissions) Draft {
	return Draft{role: role, perms: perms.Normalize()}
}

func (d Draft) Role() Role { return d.role }

func (d Draft) Permissions() Permissions { return d.perms }

func (d Draft) Locked() bool { return d.role == RoleSuperAdmin }

// WithRole switches the role. A locked draft only accepts its current role,
// and SUPER_ADMIN can never be chosen.
func (d Draft) WithRole(r Role) (Draft, error) {
	if _, err := ParseRole(string(r)); err != nil {
		return d, err
	}
	if d.Locked() {
		if r == d.role {
			return d, nil
		}
		return d, ErrSuperAdminLocked
	}
	if !r.Assignable() {
		return d, fmt.Errorf("%w: %s", ErrRoleNotAssignable, r)
	}
	d.role = r
	return d, nil
}

// WithPermissions replaces the permission object wholesale.
func (d Draft) WithPermissions(p Permissions) (Draft, error) {
	p = p.Normalize()
	if d.Locked() {
		if p == d.perms {
			return d, nil
		}
		return d, ErrSuperAdminLocked
	}
	d.perms = p
	return d, nil
}

// Toggle flips a single capability.
func (d Draft) Toggle(m Module, c Capability) (Draft, error) {
	if d.Locked() {
		return d, ErrSuperAdminLocked
	}
	next, err := d.perms.With(m, c, !d.perms.Has(m, c))
	if err != nil {
		return d, err
	}
	d.perms = next
	return d, nil
}

type MatrixCell struct {
	Capability string `json:"capability"`
	Checked    bool   `json:"checked"`
	Disabled   bool   `json:"disabled"`
}

type MatrixRow struct {
	Module string       `json:"module"`
	Cells  []MatrixCell `json:"cells"`
}

// Matrix renders the editor grid. Locked drafts show every cell checked and
// disabled.
func (d Draft) Matrix() []MatrixRow {
	rows := make([]MatrixRow, 0, moduleCount)
	for _, m := range Modules() {
		caps := CapabilitiesOf(m)
		row := MatrixRow{Module: m.String(), Cells: make([]MatrixCell, 0, len(caps))}
		for _, c := range caps {
			row.Cells = append(row.Cells, MatrixCell{
				Capability: c.String(),
				Checked:    d.Locked() || d.perms.Has(m, c),
				Disabled:   d.Locked(),
			})
		}
		rows = append(rows, row)
	}
	return rows
}
