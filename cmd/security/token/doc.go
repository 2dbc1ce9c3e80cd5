// Package token owns the server-held signing secret for session tokens.
//
// The secret is read from ACCOUNTS_JWT_SECRET (JWT_SECRET is honoured for
// older deployments). It is required: an empty secret is a startup error.
// With the strong-secret policy enabled the secret must also be at least
// 32 bytes, the HMAC-SHA256 block-size recommendation.
package token
