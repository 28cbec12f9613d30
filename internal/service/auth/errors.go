package auth

import "errors"

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken means the access token's exp claim has passed.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid means the nbf claim lies in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken means a token was required but absent.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidRefreshToken is the refresh-token analog of ErrInvalidToken.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken means the refresh token's exp claim has passed.
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType means a token was presented for the wrong purpose,
	// such as an access token sent to the refresh endpoint.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidCredentials means the email/password pair matched no user.
	// Unknown email and wrong password deliberately produce the same error.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
