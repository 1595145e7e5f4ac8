package auth

// AccessClaims is the payload of a short-lived access token. Verified by
// signature and expiry only; no store lookup.
type AccessClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
}

// RefreshClaims is the payload of a long-lived refresh token. A refresh
// token is current only while it equals the account's stored slot; the
// signature proves issuance, the store proves currency.
type RefreshClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
