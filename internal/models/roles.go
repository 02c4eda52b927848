package models

// WorkspaceRole is the role a user holds inside a workspace.
type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "Owner"
	WorkspaceRoleMember WorkspaceRole = "Member"
)

// Valid reports whether r is a known workspace role.
func (r WorkspaceRole) Valid() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleMember
}

// CourseRole is the role a user holds inside a course.
type CourseRole string

const (
	CourseRoleManager     CourseRole = "Manager"
	CourseRoleExpert      CourseRole = "Expert"
	CourseRoleParticipant CourseRole = "Participant"
)

func (r CourseRole) Valid() bool {
	switch r {
	case CourseRoleManager, CourseRoleExpert, CourseRoleParticipant:
		return true
	}
	return false
}

// TeamRole is a business-function label. Team roles carry no precedence.
type TeamRole string

const (
	TeamRoleCEO TeamRole = "CEO"
	TeamRoleCPO TeamRole = "CPO"
	TeamRoleCMO TeamRole = "CMO"
	TeamRoleCOO TeamRole = "COO"
	TeamRoleCTO TeamRole = "CTO"
	TeamRoleCFO TeamRole = "CFO"
)

func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleCEO, TeamRoleCPO, TeamRoleCMO, TeamRoleCOO, TeamRoleCTO, TeamRoleCFO:
		return true
	}
	return false
}
