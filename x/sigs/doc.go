/*
Package sigs authenticates transactions by their ed25519 signatures.

Every signature covers the transaction sign bytes together with the chain
id and the signer sequence. The sequence of each public key is kept in the
"sigs" bucket and must be used in order, which prevents replaying a
transaction. The Decorator exposes the verified signers to the rest of the
stack through the Authenticate type.
*/
package sigs
