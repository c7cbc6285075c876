package tokenizer

import "github.com/golang-jwt/jwt/v5"

// NonceClaims combines standard claims with the issued SIWE nonce
type NonceClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}
