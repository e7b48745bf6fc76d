package internal

import "testing"

func TestRolePolicyTable(t *testing.T) {
	cases := []struct {
		class EndpointClass
		role  string
		want  bool
	}{
		{ClassMember, RoleAthlete, true},
		{ClassMember, RoleClient, true},
		{ClassMember, RoleAdmin, true},
		{ClassMember, RoleSuperAdmin, true},
		{ClassMember, "", false},

		{ClassAthlete, RoleAthlete, true},
		{ClassAthlete, RoleClient, false},
		{ClassAthlete, RoleAdmin, false},

		{ClassClient, RoleClient, true},
		{ClassClient, RoleAthlete, false},
		{ClassClient, RoleSuperAdmin, false},

		{ClassAdmin, RoleAdmin, true},
		{ClassAdmin, RoleSuperAdmin, true},
		{ClassAdmin, RoleClient, false},
		{ClassAdmin, RoleAthlete, false},

		{ClassAdminSensitive, RoleSuperAdmin, true},
		{ClassAdminSensitive, RoleAdmin, false},
	}
	for _, tc := range cases {
		if got := RoleAllowed(tc.class, tc.role); got != tc.want {
			t.Errorf("RoleAllowed(%s, %q) = %v, want %v", tc.class, tc.role, got, tc.want)
		}
	}
}

func TestUnknownClassDeniesEverything(t *testing.T) {
	if RoleAllowed("nope", RoleSuperAdmin) {
		t.Fatal("unknown endpoint class must deny all roles")
	}
}
