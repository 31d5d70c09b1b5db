package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnknownModule     = errors.New("unknown permission module")
	ErrUnknownCapability = errors.New("unknown capability for module")
	ErrUnknownRole       = errors.New("unknown admin role")
	ErrSuperAdminLocked  = errors.New("super admin role and permissions are immutable")
	ErrRoleNotAssignable = errors.New("role cannot be assigned")
)

// Module is a functional area of the admin console.
type Module int

const (
	ModuleProperties Module = iota
	ModuleUsers
	ModuleProjects
	ModulePortfolio
	ModuleServices
	ModuleInquiries
	ModuleNewsletter
	ModuleReports
	ModuleAdmins
	ModuleTestimonials
	ModuleGeneralInfo
	ModuleAbout
	ModuleAppointments
	moduleCount
)

var moduleNames = [moduleCount]string{
	ModuleProperties:   "properties",
	ModuleUsers:        "users",
	ModuleProjects:     "projects",
	ModulePortfolio:    "portfolio",
	ModuleServices:     "services",
	ModuleInquiries:    "inquiries",
	ModuleNewsletter:   "newsletter",
	ModuleReports:      "reports",
	ModuleAdmins:       "admins",
	ModuleTestimonials: "testimonials",
	ModuleGeneralInfo:  "general-info",
	ModuleAbout:        "about",
	ModuleAppointments: "appointments",
}

func (m Module) Valid() bool { return m >= 0 && m < moduleCount }

func (m Module) String() string {
	if !m.Valid() {
		return fmt.Sprintf("module(%d)", int(m))
	}
	return moduleNames[m]
}

// ParseModule resolves the wire name of a module.
func ParseModule(name string) (Module, error) {
	for i, n := range moduleNames {
		if n == name {
			return Module(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModule, name)
}

// Modules lists every module in declaration order.
func Modules() []Module {
	out := make([]Module, 0, moduleCount)
	for m := Module(0); m < moduleCount; m++ {
		out = append(out, m)
	}
	return out
}

// Capability is a single permission flag inside a module.
type Capability int

const (
	View Capability = iota
	Create
	Edit
	Delete
	Approve
	Export
	capabilityCount
)

var capabilityNames = [capabilityCount]string{
	View:    "view",
	Create:  "create",
	Edit:    "edit",
	Delete:  "delete",
	Approve: "approve",
	Export:  "export",
}

func (c Capability) Valid() bool { return c >= 0 && c < capabilityCount }

func (c Capability) String() string {
	if !c.Valid() {
		return fmt.Sprintf("capability(%d)", int(c))
	}
	return capabilityNames[c]
}

func ParseCapability(name string) (Capability, error) {
	for i, n := range capabilityNames {
		if n == name {
			return Capability(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// Grants is the set of capabilities held on one module.
type Grants uint8

func grantsOf(caps ...Capability) Grants {
	var g Grants
	for _, c := range caps {
		g |= 1 << uint(c)
	}
	return g
}

func (g Grants) Has(c Capability) bool {
	if !c.Valid() {
		return false
	}
	return g&(1<<uint(c)) != 0
}

func (g Grants) with(c Capability, on bool) Grants {
	if on {
		return g | 1<<uint(c)
	}
	return g &^ (1 << uint(c))
}

// schema declares which capabilities each module defines.
var schema = [moduleCount]Grants{
	ModuleProperties:   grantsOf(View, Create, Edit, Delete, Approve, Export),
	ModuleUsers:        grantsOf(View, Create, Edit, Delete, Export),
	ModuleProjects:     grantsOf(View, Create, Edit, Delete),
	ModulePortfolio:    grantsOf(View, Create, Edit, Delete),
	ModuleServices:     grantsOf(View, Create, Edit, Delete),
	ModuleInquiries:    grantsOf(View, Edit, Delete, Export),
	ModuleNewsletter:   grantsOf(View, Delete, Export),
	ModuleReports:      grantsOf(View, Export),
	ModuleAdmins:       grantsOf(View, Create, Edit, Delete),
	ModuleTestimonials: grantsOf(View, Create, Edit, Delete, Approve),
	ModuleGeneralInfo:  grantsOf(View, Edit),
	ModuleAbout:        grantsOf(View, Edit),
	ModuleAppointments: grantsOf(View, Create, Edit, Delete, Export),
}

// Supports reports whether module m defines capability c.
func Supports(m Module, c Capability) bool {
	return m.Valid() && schema[m].Has(c)
}

// CapabilitiesOf returns the capabilities module m defines, in declaration order.
func CapabilitiesOf(m Module) []Capability {
	if !m.Valid() {
		return nil
	}
	var out []Capability
	for c := Capability(0); c < capabilityCount; c++ {
		if schema[m].Has(c) {
			out = append(out, c)
		}
	}
	return out
}

type ModuleSchema struct {
	Module       string   `json:"module"`
	Capabilities []string `json:"capabilities"`
}

// Schema describes the full closed permission schema for clients.
func Schema() []ModuleSchema {
	out := make([]ModuleSchema, 0, moduleCount)
	for _, m := range Modules() {
		caps := CapabilitiesOf(m)
		names := make([]string, 0, len(caps))
		for _, c := range caps {
			names = append(names, c.String())
		}
		out = append(out, ModuleSchema{Module: m.String(), Capabilities: names})
	}
	return out
}

// Permissions maps every module to its granted capabilities. The zero value
// grants nothing. Being an array it is copied on assignment, so a value held
// by one caller is never changed by another.
type Permissions [moduleCount]Grants

func (p Permissions) Has(m Module, c Capability) bool {
	return Supports(m, c) && p[m].Has(c)
}

// With returns a copy of p with capability c on module m set to on.
func (p Permissions) With(m Module, c Capability, on bool) (Permissions, error) {
	if !m.Valid() {
		return p, fmt.Errorf("%w: %s", ErrUnknownModule, m)
	}
	if !Supports(m, c) {
		return p, fmt.Errorf("%w: %s.%s", ErrUnknownCapability, m, c)
	}
	p[m] = p[m].with(c, on)
	return p, nil
}

// Normalize drops any bits the schema does not define.
func (p Permissions) Normalize() Permissions {
	for m := range p {
		p[m] &= schema[m]
	}
	return p
}

// All grants every capability the schema defines.
func All() Permissions {
	return Permissions(schema)
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]bool, moduleCount)
	for _, m := range Modules() {
		flags := make(map[string]bool)
		for _, c := range CapabilitiesOf(m) {
			flags[c.String()] = p[m].Has(c)
		}
		out[m.String()] = flags
	}
	return json.Marshal(out)
}

// UnmarshalJSON rejects modules and capabilities outside the schema.
// Modules missing from the input are granted nothing.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out Permissions
	for _, name := range keys {
		m, err := ParseModule(name)
		if err != nil {
			return err
		}
		for capName, on := range raw[name] {
			c, err := ParseCapability(capName)
			if err != nil {
				return fmt.Errorf("%w: %s.%s", ErrUnknownCapability, name, capName)
			}
			if out, err = out.With(m, c, on); err != nil {
				return err
			}
		}
	}
	*p = out
	return nil
}

// Role is the rank of an admin account.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleModerator  Role = "MODERATOR"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleAdmin, RoleModerator:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Assignable reports whether the role may be given through admin management.
// SUPER_ADMIN accounts are only created by bootstrap seeding.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Principal is the acting admin as seen by authorization checks.
type Principal struct {
	ID          uuid.UUID
	Role        Role
	Permissions Permissions
}

// Can is the single authorization predicate. SUPER_ADMIN holds every
// capability regardless of stored permissions; anything else not explicitly
// granted is denied.
func Can(p Principal, m Module, c Capability) bool {
	if !m.Valid() || !c.Valid() {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	return p.Permissions.Has(m, c)
}

// Covers reports whether p grants everything q grants.
func (p Permissions) Covers(q Permissions) bool {
	q = q.Normalize()
	for m := range q {
		if q[m]&^p[m] != 0 {
			return false
		}
	}
	return true
}

// Effective returns what p can actually do, for client-side gating.
func Effective(p Principal) Permissions {
	if p.Role == RoleSuperAdmin {
		return All()
	}
	return p.Permissions.Normalize()
}

// Require returns ErrUnauthorized unless Can(p, m, c).
func Require(p Principal, m Module, c Capability) error {
	if !Can(p, m, c) {
		return fmt.Errorf("%w: %s.%s", ErrUnauthorized, m, c)
	}
	return nil
}

// Defaults is the permission template applied when an admin is created
// without an explicit permission object.
func Defaults(r Role) Permissions {
	switch r {
	case RoleSuperAdmin:
		return All()
	case RoleAdmin:
		p := All()
		p[ModuleAdmins] = grantsOf(View)
		return p
	case RoleModerator:
		var p Permissions
		for _, m := range []Module{ModuleProperties, ModuleInquiries, ModuleTestimonials, ModuleAppointments} {
			p[m] = grantsOf(View)
		}
		p[ModuleProperties] = grantsOf(View, Edit)
		p[ModuleAppointments] = grantsOf(View, Edit)
		return p
	}
	return Permissions{}
}
