/*
Package x contains the extensions of the vault application.

Extensions implement common functionality (Handler, Decorator,
Authenticator) and are combined together in cmd/vaultd to construct the
application. This package holds the authentication contract shared by all
of them.
*/
package x
