/*
Package cash defines a simple implementation of sending coins
between wallets.

There is no logic in the coins (tokens), except that the balance
of any wallet may not go below zero. Thus, this implementation is
referred to as cash. Simple and safe.

The Controller is the funds ledger used by other extensions: it moves
coins between addresses within the same store the calling extension
writes to, so a transfer is part of the caller's savepoint.
*/
package cash
