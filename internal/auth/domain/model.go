package domain

import "github.com/golang-jwt/jwt/v5"

type Method string

const (
	MethodAPIKey Method = "api_key"
	MethodToken  Method = "token"
)

// Principal is the authenticated caller of an API request.
type Principal struct {
	Actor  string `json:"actor"`
	Role   string `json:"role"`
	Method Method `json:"method"`
}

// Claims is the payload of a signed bearer token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
