// Package oidc provides HTTP handlers for OpenID Connect (OIDC) single
// sign-on. External logins are materialized as local identities and run
// through the default role assignment flow on first sight.
package oidc
