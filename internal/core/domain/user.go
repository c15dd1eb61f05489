// Package domain defines the core domain models for staffdesk.
package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Role is the role of a user within a company.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleEmployee: 0,
	RoleHR:       1,
	RoleAdmin:    2,
}

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsAtLeast checks if this role meets the minimum required level.
// Unknown roles never satisfy a known minimum.
func (r Role) IsAtLeast(minRole Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[minRole]
}

// ParseRole normalizes a role name. Unknown names are kept verbatim.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// User is the signed-in identity as returned by the auth endpoints.
type User struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   Ref    `json:"company,omitzero"`
	Status    string `json:"status,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.AltID
	}
	u.Role = ParseRole(string(u.Role))
	return nil
}

// DisplayName returns the full name, falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Ref is a reference to another document. The backend sends either the
// bare id or the populated document.
type Ref struct {
	ID   string
	Name string
}

// UnmarshalJSON accepts a string id, a populated object or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var obj struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.AltID
	}
	r.Name = obj.Name
	return nil
}

// MarshalJSON writes the reference as its id.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// String returns the name when populated, otherwise the id.
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
