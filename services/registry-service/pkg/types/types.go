// Package types holds token claim shapes shared across the registry service.
package types

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims carried by a portal access token.
type AccessClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}
