/*
Package timevault defines interfaces used throughout the app, such as:
storage, transactions, handlers etc. It also contains helpers to work with
addresses, time, context and abci.

Look into this package to get a brief overview of design decisions made
around interfaces and extension building blocks. The vault logic itself lives
in the x/vault extension.
*/
package timevault
