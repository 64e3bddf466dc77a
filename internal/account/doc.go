// Package account implements registration, login and password reset for the
// API.
//
// Tokens signs access and reset tokens with HMAC-SHA256 (pkg/token) and is
// the middleware.Authenticator of the protected routes. Passwords are bcrypt
// hashes. Routes:
//
//	POST /api/auth/register               username + email + password -> 201 {token, user}
//	POST /api/auth/login                  email + password -> {token, user}
//	POST /api/auth/forgot-password        always 200, reset token to the ResetNotifier
//	PUT  /api/auth/reset-password/{token} new password -> {token, user}
//	GET  /api/auth/me                     current principal
//
// A reset token carries a stamp of the password hash it was issued for, so
// it is rejected once the password has changed.
//
// Mount takes the guards for each route so the server can put the login and
// password-reset rate limit policies in front of them.
package account
