package service

import "github.com/smallbiznis/orghub/internal/domain"

// UserView is the public projection of a user. The password hash and
// internal key are never serialized.
type UserView struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// OrgView is the public projection of an organisation.
type OrgView struct {
	OrgID       string `json:"orgId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterData is the registration success payload.
type RegisterData struct {
	AccessToken string   `json:"accessToken"`
	User        UserView `json:"user"`
}

// LoginData is the login success payload. The token key differs from
// registration for historical API compatibility.
type LoginData struct {
	AccessToken string   `json:"access_token"`
	User        UserView `json:"user"`
}

// OrgListData wraps the organisation list payload.
type OrgListData struct {
	Organisations []OrgView `json:"organisations"`
}

func newUserView(user domain.User) UserView {
	return UserView{
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
	}
}

func newOrgView(org domain.Organisation) OrgView {
	return OrgView{
		OrgID:       org.OrgID,
		Name:        org.Name,
		Description: org.Description,
	}
}
