package identity

import "errors"

var (
	// ErrIdentityNotFound is returned when an identity cannot be found.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrEmailExists is returned when attempting to create an identity with
	// an email that already exists.
	ErrEmailExists = errors.New("identity with email already exists")

	// ErrIdentityDisabled is returned when attempting to authenticate a
	// disabled identity.
	ErrIdentityDisabled = errors.New("identity is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidTOTPCode is returned when the second-factor code does not
	// verify against the enrolled secret.
	ErrInvalidTOTPCode = errors.New("invalid totp code")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't
	// contain an ID token. This typically indicates a misconfigured OIDC
	// provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")
)
