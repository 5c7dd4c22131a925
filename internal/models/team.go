package models

import "time"

type TeamMember struct {
	UserID     string     `json:"userId" bson:"userId"`
	Role       MemberRole `json:"role" bson:"role"`
	JoinedDate time.Time  `json:"joinedDate" bson:"joinedDate"`
}

type TeamMembers []TeamMember

// Contains reports whether userID appears in the member list.
func (m TeamMembers) Contains(userID string) bool {
	for _, member := range m {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

// Without returns the list minus every entry for userID.
func (m TeamMembers) Without(userID string) TeamMembers {
	out := make(TeamMembers, 0, len(m))
	for _, member := range m {
		if member.UserID != userID {
			out = append(out, member)
		}
	}
	return out
}

// Team groups the users responsible for servicing a set of equipment.
type Team struct {
	ID                  string             `db:"id" json:"id" bson:"_id"`
	Name                TeamName           `db:"name" json:"name" bson:"name"`
	Description         string             `db:"description" json:"description,omitempty" bson:"description,omitempty"`
	Specialization      TeamSpecialization `db:"specialization" json:"specialization,omitempty" bson:"specialization,omitempty"`
	Department          Department         `db:"department" json:"department,omitempty" bson:"department,omitempty"`
	Members             TeamMembers        `db:"members" json:"members" bson:"members"`
	LeaderID            *string            `db:"leader_id" json:"leaderId,omitempty" bson:"leaderId,omitempty"`
	DefaultTechnicianID *string            `db:"default_technician_id" json:"defaultTechnicianId,omitempty" bson:"defaultTechnicianId,omitempty"`
	IsActive            bool               `db:"is_active" json:"isActive" bson:"isActive"`
	CreatedAt           time.Time          `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

type TeamMemberDetail struct {
	TeamMember
	User *User `json:"user,omitempty"`
}

// TeamDetail is Team with leader, default technician and members resolved.
// Members shadows the embedded raw list in JSON output.
type TeamDetail struct {
	Team
	Members           []TeamMemberDetail `json:"members"`
	Leader            *User              `json:"leader,omitempty"`
	DefaultTechnician *User              `json:"defaultTechnician,omitempty"`
}

// TeamFilter lists active teams unless IncludeInactive is set.
type TeamFilter struct {
	IncludeInactive bool
	Specialization  TeamSpecialization
	Department      Department
}
