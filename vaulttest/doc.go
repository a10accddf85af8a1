/*
Package vaulttest provides mocks and helpers for testing the vault
application packages: authenticators, handlers, decorators, transactions
and ready to use contexts.
*/
package vaulttest
