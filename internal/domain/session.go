package domain

// Role values assigned by the platform's auth service.
const (
	RoleNormalUser = "normal_user"
	RoleSubAdmin   = "sub_admin"
	RoleAdmin      = "admin"
)

// Session is the client-held authentication state for one platform user.
// A session is either fully populated or absent; a value missing any
// field is treated the same as no session at all.
type Session struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether every field of the session is populated.
func (s *Session) Valid() bool {
	return s != nil && s.UserID != 0 && s.Role != "" && s.AccessToken != "" && s.RefreshToken != ""
}

// Profile is the subset of the platform user profile the companion reads.
type Profile struct {
	UserID         int64  `json:"user_id"`
	Role           string `json:"role"`
	ChatEnabled    bool   `json:"chat_enabled"`
	ConversationID string `json:"conversation_id"`
}
