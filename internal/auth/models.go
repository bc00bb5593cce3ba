package auth

type DevAuthRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
