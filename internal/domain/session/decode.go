package session

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const userKind = "user"

type wireUser struct {
	ID          *int            `json:"id"`
	Email       *string         `json:"email"`
	Name        *string         `json:"name"`
	FirstName   *string         `json:"firstName"`
	LastName    *string         `json:"lastName"`
	Tenants     json.RawMessage `json:"tenants"`
	UserTenants json.RawMessage `json:"userTenants"`
}

// wireMembership accepts both the nested {"tenant": {...}} form and the
// flattened {"id", "name"} form.
type wireMembership struct {
	Tenant *wireTenant `json:"tenant"`
	ID     *int        `json:"id"`
	Name   *string     `json:"name"`
	Role   *string     `json:"role"`
}

type wireTenant struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

// DecodeUser decodes the user object of an auth response.
func DecodeUser(raw json.RawMessage) (User, error) {
	var w wireUser
	if err := decode.Object(userKind, "$", raw, &w); err != nil {
		return User{}, err
	}
	if w.ID == nil {
		return User{}, decode.Missing(userKind, "$.id")
	}
	name := decode.Deref(w.Name)
	if name == "" {
		first, last := decode.Deref(w.FirstName), decode.Deref(w.LastName)
		switch {
		case first != "" && last != "":
			name = first + " " + last
		default:
			name = first + last
		}
	}
	memberships := w.Tenants
	if memberships == nil {
		memberships = w.UserTenants
	}
	return User{
		ID:          *w.ID,
		Email:       decode.Deref(w.Email),
		Name:        name,
		Memberships: decode.Each(memberships, decodeMembership),
	}, nil
}

func decodeMembership(raw json.RawMessage) (Membership, error) {
	var w wireMembership
	if err := decode.Object(userKind, "tenants", raw, &w); err != nil {
		return Membership{}, err
	}
	role := decode.Deref(w.Role)
	if w.Tenant != nil && w.Tenant.ID != nil {
		return Membership{
			Tenant: Tenant{ID: *w.Tenant.ID, Name: decode.Deref(w.Tenant.Name)},
			Role:   role,
		}, nil
	}
	if w.ID != nil {
		return Membership{
			Tenant: Tenant{ID: *w.ID, Name: decode.Deref(w.Name)},
			Role:   role,
		}, nil
	}
	return Membership{}, decode.Missing(userKind, "tenants.tenant.id")
}
