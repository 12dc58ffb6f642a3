package auth

// SignupRequest keeps binding to presence only; the length rules run through
// the validator package so failures come back per field.
type SignupRequest struct {
	Username string `json:"username" binding:"required" validate:"min=3,max=64"`
	Password string `json:"password" binding:"required" validate:"min=8,max=72"`
	Name     string `json:"name" binding:"required" validate:"max=100"`
}

type SigninRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
