package client

import (
	"encoding/json"
	"fmt"
)

// User is one entry of the GitHub users collection as returned by GET /users.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
	SiteAdmin bool   `json:"site_admin"`
	HTMLURL   string `json:"html_url"`
}

// UserDetail is the profile record returned by GET /users/{login}.
// Pointer fields are optional and nil when GitHub omits them or sends null.
type UserDetail struct {
	ID          int64   `json:"id"`
	Login       string  `json:"login"`
	AvatarURL   string  `json:"avatar_url"`
	Name        *string `json:"name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Email       *string `json:"email,omitempty"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	CreatedAt   string  `json:"created_at"`
	Company     string  `json:"company"`
	Blog        *string `json:"blog,omitempty"`
}

// userWire mirrors User with pointers so missing required fields can be detected.
type userWire struct {
	ID        *int64  `json:"id"`
	Login     *string `json:"login"`
	AvatarURL *string `json:"avatar_url"`
	Type      *string `json:"type"`
	SiteAdmin *bool   `json:"site_admin"`
	HTMLURL   *string `json:"html_url"`
}

func (w userWire) toUser() (User, error) {
	switch {
	case w.ID == nil:
		return User{}, missingField("id")
	case w.Login == nil:
		return User{}, missingField("login")
	case w.AvatarURL == nil:
		return User{}, missingField("avatar_url")
	case w.Type == nil:
		return User{}, missingField("type")
	case w.SiteAdmin == nil:
		return User{}, missingField("site_admin")
	case w.HTMLURL == nil:
		return User{}, missingField("html_url")
	}
	return User{
		ID:        *w.ID,
		Login:     *w.Login,
		AvatarURL: *w.AvatarURL,
		Type:      *w.Type,
		SiteAdmin: *w.SiteAdmin,
		HTMLURL:   *w.HTMLURL,
	}, nil
}

type userDetailWire struct {
	ID          *int64  `json:"id"`
	Login       *string `json:"login"`
	AvatarURL   *string `json:"avatar_url"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Email       *string `json:"email"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
	Following   *int    `json:"following"`
	CreatedAt   *string `json:"created_at"`
	Company     *string `json:"company"`
	Blog        *string `json:"blog"`
}

func (w userDetailWire) toDetail() (*UserDetail, error) {
	switch {
	case w.ID == nil:
		return nil, missingField("id")
	case w.Login == nil:
		return nil, missingField("login")
	case w.AvatarURL == nil:
		return nil, missingField("avatar_url")
	case w.PublicRepos == nil:
		return nil, missingField("public_repos")
	case w.Followers == nil:
		return nil, missingField("followers")
	case w.Following == nil:
		return nil, missingField("following")
	case w.CreatedAt == nil:
		return nil, missingField("created_at")
	}

	d := &UserDetail{
		ID:          *w.ID,
		Login:       *w.Login,
		AvatarURL:   *w.AvatarURL,
		Name:        w.Name,
		Bio:         w.Bio,
		Location:    w.Location,
		Email:       w.Email,
		PublicRepos: *w.PublicRepos,
		Followers:   *w.Followers,
		Following:   *w.Following,
		CreatedAt:   *w.CreatedAt,
		Blog:        w.Blog,
	}
	if w.Company != nil {
		d.Company = *w.Company
	}
	return d, nil
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// DecodeUsers decodes a users page, rejecting records without the required fields.
func DecodeUsers(data []byte) ([]User, error) {
	var wire []userWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	if wire == nil {
		return nil, fmt.Errorf("users page is null")
	}

	users := make([]User, 0, len(wire))
	for i, w := range wire {
		u, err := w.toUser()
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// DecodeUserDetail decodes a single user profile.
func DecodeUserDetail(data []byte) (*UserDetail, error) {
	var wire *userDetailWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	if wire == nil {
		return nil, fmt.Errorf("user detail is null")
	}
	return wire.toDetail()
}
