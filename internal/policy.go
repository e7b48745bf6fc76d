package internal

// EndpointClass names a group of routes that share one role requirement.
// Every gated route declares its class in main.go; the table below is the
// only place role sets are defined.
type EndpointClass string

const (
	ClassMember         EndpointClass = "member"          // any authenticated identity
	ClassAthlete        EndpointClass = "athlete"         // athlete-only actions
	ClassClient         EndpointClass = "client"          // organization-only actions
	ClassAdmin          EndpointClass = "admin"           // administrative reads/writes
	ClassAdminSensitive EndpointClass = "admin-sensitive" // role changes and the like
)

var rolePolicy = map[EndpointClass][]string{
	ClassMember:         {RoleAthlete, RoleClient, RoleAdmin, RoleSuperAdmin},
	ClassAthlete:        {RoleAthlete},
	ClassClient:         {RoleClient},
	ClassAdmin:          {RoleAdmin, RoleSuperAdmin},
	ClassAdminSensitive: {RoleSuperAdmin},
}

func RoleAllowed(class EndpointClass, role string) bool {
	for _, r := range rolePolicy[class] {
		if r == role {
			return true
		}
	}
	return false
}
