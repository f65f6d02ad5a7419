package domain

import "time"

// Role is the single role assigned to a person. It is immutable once set;
// changing it is an administrative override outside the membership lifecycle.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleMember  Role = "member"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleMember:
		return true
	}
	return false
}

// Person is the identity record shared by admins, trainers, and members.
type Person struct {
	ID       PersonID
	FullName string
	Email    string
	Phone    *string
	Role     Role

	// CredentialRef points at the stored credential for this person. It is
	// opaque to the lifecycle engine; approval issues a placeholder value.
	CredentialRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}
