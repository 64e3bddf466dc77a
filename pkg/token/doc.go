// Package token provides compact, URL-safe token generation and verification using HMAC signatures.
//
// Tokens combine a JSON payload with an HMAC-SHA256 signature and are used as
// bearer credentials by the account service.
//
// # Token Format
//
// Tokens follow the format: `<base64url-payload>.<base64url-signature>`
//
// Where:
//   - Payload: JSON-encoded data, base64url-encoded (no padding)
//   - Signature: full HMAC-SHA256 of the encoded payload, base64url-encoded
//
// # Basic Usage
//
//	type Claims struct {
//		UserID    string `json:"sub"`
//		ExpiresAt int64  `json:"exp"`
//	}
//
//	tokenStr, err := token.GenerateToken(Claims{UserID: "u1", ExpiresAt: exp}, secret)
//
//	parsed, err := token.ParseToken[Claims](tokenStr, secret)
//	switch {
//	case errors.Is(err, token.ErrInvalidToken):
//		// Token is malformed
//	case errors.Is(err, token.ErrSignatureInvalid):
//		// Token was tampered with or wrong secret
//	}
//
// Claims implementing Expirer are rejected with ErrTokenExpired once their
// expiry has passed.
//
// # Security Notes
//
// Signatures are compared in constant time. Always use cryptographically
// secure secrets and include expiration times in your claims.
package token
