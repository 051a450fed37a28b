package dto

import "github.com/eduassign/eduassign-gateway/internal/models"

// SignUpRequest registers a new account; role and name become the immutable
// profile record.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
	Name     string `json:"name" validate:"required,min=2"`
}

// SignInRequest authenticates an existing account.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the published identity state.
type UserResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// SessionResponse carries the minted session token and the user it is for.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{ID: user.ID, Role: user.Role, Name: user.Name}
}
