package permission

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCan_SuperAdminOverridesStoredPermissions(t *testing.T) {
	p := Principal{ID: uuid.New(), Role: RoleSuperAdmin}

	for _, m := range Modules() {
		for c := Capability(0); c < capabilityCount; c++ {
			assert.True(t, Can(p, m, c), "%s.%s", m, c)
		}
	}
}

func TestCan_DefaultDeny(t *testing.T) {
	perms, err := Permissions{}.With(ModuleProperties, View, true)
	require.NoError(t, err)
	p := Principal{ID: uuid.New(), Role: RoleAdmin, Permissions: perms}

	assert.True(t, Can(p, ModuleProperties, View))
	assert.False(t, Can(p, ModuleProperties, Approve))
	assert.False(t, Can(p, ModulePortfolio, View))
	// reports does not define create
	assert.False(t, Can(p, ModuleReports, Create))
	assert.False(t, Can(p, Module(99), View))
	assert.False(t, Can(p, ModuleProperties, Capability(-1)))
}

func TestCan_IgnoresBitsOutsideSchema(t *testing.T) {
	var perms Permissions
	perms[ModuleReports] = 0xFF
	p := Principal{Role: RoleModerator, Permissions: perms}

	assert.True(t, Can(p, ModuleReports, Export))
	assert.False(t, Can(p, ModuleReports, Approve))
}

func TestPermissions_WithRejectsUndeclaredCapability(t *testing.T) {
	_, err := Permissions{}.With(ModuleNewsletter, Create, true)
	assert.ErrorIs(t, err, ErrUnknownCapability)

	_, err = Permissions{}.With(Module(42), View, true)
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestPermissions_JSONRoundTripShape(t *testing.T) {
	perms, err := Permissions{}.With(ModuleProperties, Approve, true)
	require.NoError(t, err)

	data, err := json.Marshal(perms)
	require.NoError(t, err)

	var raw map[string]map[string]bool
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, int(moduleCount))
	assert.True(t, raw["properties"]["approve"])
	assert.False(t, raw["properties"]["view"])
	assert.NotContains(t, raw["about"], "delete")

	var decoded Permissions
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, perms, decoded)
}

func TestPermissions_UnmarshalRejectsUnknownKeys(t *testing.T) {
	var p Permissions
	err := json.Unmarshal([]byte(`{"billing":{"view":true}}`), &p)
	assert.ErrorIs(t, err, ErrUnknownModule)

	err = json.Unmarshal([]byte(`{"about":{"delete":true}}`), &p)
	assert.ErrorIs(t, err, ErrUnknownCapability)

	err = json.Unmarshal([]byte(`{"about":{"fly":true}}`), &p)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestPermissions_UnmarshalPartialObject(t *testing.T) {
	var p Permissions
	require.NoError(t, json.Unmarshal([]byte(`{"general-info":{"edit":true}}`), &p))

	assert.True(t, p.Has(ModuleGeneralInfo, Edit))
	assert.False(t, p.Has(ModuleGeneralInfo, View))
	assert.False(t, p.Has(ModuleProperties, View))
}

func TestEffective(t *testing.T) {
	assert.Equal(t, All(), Effective(Principal{Role: RoleSuperAdmin}))

	var stored Permissions
	stored[ModuleAbout] = 0xFF
	eff := Effective(Principal{Role: RoleAdmin, Permissions: stored})
	assert.True(t, eff.Has(ModuleAbout, Edit))
	assert.Equal(t, grantsOf(View, Edit), eff[ModuleAbout])
}

func TestRequire(t *testing.T) {
	err := Require(Principal{Role: RoleModerator}, ModuleAdmins, Delete)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NoError(t, Require(Principal{Role: RoleSuperAdmin}, ModuleAdmins, Delete))
}

func TestDefaults(t *testing.T) {
	admin := Defaults(RoleAdmin)
	assert.True(t, admin.Has(ModuleProperties, Approve))
	assert.True(t, admin.Has(ModuleAdmins, View))
	assert.False(t, admin.Has(ModuleAdmins, Create))

	mod := Defaults(RoleModerator)
	assert.True(t, mod.Has(ModuleProperties, Edit))
	assert.False(t, mod.Has(ModuleProperties, Approve))
	assert.False(t, mod.Has(ModuleUsers, View))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("MODERATOR")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("ROOT")
	assert.ErrorIs(t, err, ErrUnknownRole)

	assert.False(t, RoleSuperAdmin.Assignable())
	assert.True(t, RoleAdmin.Assignable())
}

func TestSchemaListsEveryModule(t *testing.T) {
	s := Schema()
	require.Len(t, s, int(moduleCount))
	assert.Equal(t, "properties", s[0].Module)
	assert.Equal(t, []string{"view", "create", "edit", "delete", "approve", "export"}, s[0].Capabilities)
	assert.Equal(t, "general-info", s[ModuleGeneralInfo].Module)
}

func TestCovers(t *testing.T) {
	mod := Defaults(RoleModerator)
	assert.True(t, All().Covers(mod))
	assert.True(t, mod.Covers(Permissions{}))
	assert.False(t, mod.Covers(Defaults(RoleAdmin)))

	var junk Permissions
	junk[ModuleAbout] = 0xFF
	assert.True(t, All().Covers(junk), "bits outside the schema are ignored")
}
