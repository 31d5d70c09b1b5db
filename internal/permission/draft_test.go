package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_ToggleReturnsNewValue(t *testing.T) {
	d := NewDraft(RoleModerator, Permissions{})

	next, err := d.Toggle(ModulePortfolio, Edit)
	require.NoError(t, err)

	assert.False(t, d.Permissions().Has(ModulePortfolio, Edit))
	assert.True(t, next.Permissions().Has(ModulePortfolio, Edit))

	back, err := next.Toggle(ModulePortfolio, Edit)
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestDraft_ToggleUndeclaredCapability(t *testing.T) {
	d := NewDraft(RoleAdmin, Permissions{})
	_, err := d.Toggle(ModuleAbout, Approve)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestDraft_SuperAdminIsLocked(t *testing.T) {
	d := NewDraft(RoleSuperAdmin, Permissions{})
	require.True(t, d.Locked())

	_, err := d.Toggle(ModuleProperties, View)
	assert.ErrorIs(t, err, ErrSuperAdminLocked)

	_, err = d.WithRole(RoleAdmin)
	assert.ErrorIs(t, err, ErrSuperAdminLocked)

	same, err := d.WithRole(RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, d, same)

	_, err = d.WithPermissions(All())
	assert.ErrorIs(t, err, ErrSuperAdminLocked)

	unchanged, err := d.WithPermissions(Permissions{})
	require.NoError(t, err)
	assert.Equal(t, d, unchanged)
}

func TestDraft_SuperAdminNotAssignable(t *testing.T) {
	d := NewDraft(RoleAdmin, Permissions{})
	_, err := d.WithRole(RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	_, err = d.WithRole(Role("OWNER"))
	assert.ErrorIs(t, err, ErrUnknownRole)

	mod, err := d.WithRole(RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, mod.Role())
	assert.Equal(t, RoleAdmin, d.Role())
}

func TestDraft_Matrix(t *testing.T) {
	locked := NewDraft(RoleSuperAdmin, Permissions{}).Matrix()
	require.Len(t, locked, int(moduleCount))
	for _, row := range locked {
		for _, cell := range row.Cells {
			assert.True(t, cell.Checked, "%s.%s", row.Module, cell.Capability)
			assert.True(t, cell.Disabled, "%s.%s", row.Module, cell.Capability)
		}
	}

	perms, err := Permissions{}.With(ModuleReports, Export, true)
	require.NoError(t, err)
	open := NewDraft(RoleAdmin, perms).Matrix()
	reports := open[ModuleReports]
	assert.Equal(t, "reports", reports.Module)
	assert.Equal(t, []MatrixCell{
		{Capability: "view", Checked: false, Disabled: false},
		{Capability: "export", Checked: true, Disabled: false},
	}, reports.Cells)
}
