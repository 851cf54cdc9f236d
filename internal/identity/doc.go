// Package identity implements the identity provider: credentialed identities
// with an attached role claim. The claim column is the claims store; it is
// the only role channel trusted for authorization and is snapshotted into
// the session token at issuance.
package identity
