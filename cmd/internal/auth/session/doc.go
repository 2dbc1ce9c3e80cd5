// Package session issues and checks bearer session tokens.
//
// Tokens are HS256 JWTs carrying the account id (sub), a hard expiry (exp),
// the issue time (iat) and a random id (jti). Verification applies no
// leeway: a token is invalid from the second its exp is reached.
//
// Logout is implemented by a process-local RevocationRegistry. Every
// protected request goes through Guard, which consults the registry before
// the signature is checked. Restarting the process clears all revocations.
package session
