package auth

import "time"

type User struct {
	ID              int64      `json:"id"`
	UserName        string     `json:"userName"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	IsAdmin         bool       `json:"isAdmin"`
	IsActive        bool       `json:"isActive"`
	RequestPwdReset bool       `json:"requestPwdReset"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type RegisterRequest struct {
	UserName string `json:"userName" form:"userName" validate:"required,max=64"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
