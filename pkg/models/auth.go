package models

// UserSession is the ambient identity a session is created with. It is supplied
// once per session and treated as immutable; $user.* expressions resolve against it.
type UserSession struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Role  string  `json:"role,omitempty"`
}

// ToMap converts UserSession to a map for expression context
func (u *UserSession) ToMap() map[string]interface{} {
	if u == nil {
		return map[string]interface{}{}
	}
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": email,
		"role":  u.Role,
	}
}
