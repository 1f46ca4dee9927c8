package auth

import "github.com/parent-portal/parent_portal/internal/backend"

const profilesTable = "profiles"

// Profile is a parent's profile row.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar,omitempty"`
}

// ProfilePatch is a typed partial update of a profile. Nil fields are left
// untouched; there is no way to smuggle unknown columns through it.
type ProfilePatch struct {
	Name   *string
	Email  *string
	Avatar *string
}

func (p ProfilePatch) row() backend.Row {
	row := backend.Row{}
	if p.Name != nil {
		row["name"] = *p.Name
	}
	if p.Email != nil {
		row["email"] = *p.Email
	}
	if p.Avatar != nil {
		row["avatar"] = *p.Avatar
	}
	return row
}

func profileFromRow(row backend.Row) Profile {
	return Profile{
		ID:     row.String("id"),
		Name:   row.String("name"),
		Email:  row.String("email"),
		Phone:  row.String("phone"),
		Avatar: row.String("avatar"),
	}
}
