package transfer

// LinkedinUserInfo is the OpenID Connect userinfo payload.
type LinkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}
