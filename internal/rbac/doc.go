// Package rbac defines the closed role enumeration of the platform, the
// authorization policies evaluated against it, and the error taxonomy shared
// by every role-mutating operation.
//
// A user's role is observable through two channels: the claim snapshotted
// into the session at token issuance, and the role field mirrored on the
// profile document. Only the claim is trusted for authorization decisions;
// the profile mirror exists for display and reporting. The two may disagree
// until the session is refreshed after a promotion.
package rbac
