package domain

// Credentials is the register/login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Ack is the register acknowledgement.
type Ack struct {
	Msg string `json:"msg"`
}
