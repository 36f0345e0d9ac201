package model

// UserDTO is the authenticated-user context carried by middleware and
// websocket sessions.
type UserDTO struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// PublicUser is the profile shape embedded in every broadcast payload.
type PublicUser struct {
	ID          int     `json:"id"`
	DisplayName string  `json:"display_name"`
	Username    string  `json:"username"`
	Avatar      *string `json:"avatar"`
	Bio         string  `json:"bio"`
	Online      bool    `json:"online"`
	LastSeen    *string `json:"last_seen"`
}

type SettingsPayload struct {
	TimezoneMode   string `json:"timezone_mode"`
	TimezoneOffset int    `json:"timezone_offset"`
	DatetimeFormat string `json:"datetime_format"`
}

// PrivateUser extends the public profile with fields only the account
// owner receives.
type PrivateUser struct {
	PublicUser
	Email    string          `json:"email"`
	Settings SettingsPayload `json:"settings"`
}

type AvatarPayload struct {
	Data     string `json:"data"`
	Name     string `json:"name"`
	Mimetype string `json:"mimetype"`
	Remove   bool   `json:"remove"`
}

type UpdateProfileRequest struct {
	DisplayName    string         `json:"display_name"`
	Bio            string         `json:"bio"`
	Avatar         *AvatarPayload `json:"avatar"`
	TimezoneMode   *string        `json:"timezone_mode"`
	TimezoneOffset *float64       `json:"timezone_offset"`
	DatetimeFormat *string        `json:"datetime_format"`
}
