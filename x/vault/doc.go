/*
Package vault implements a time-locked custodial vault.

An owner initializes a vault once and then deposits coins into it. The coins
are held by a custody account derived from the owner address, for a fixed
lock duration counted from the vault creation. Withdrawing drains the whole
balance back to the owner. A withdrawal before the unlock time pays a penalty
to the treasury first.

Every mutating operation runs inside a savepoint: the vault record and all
the ledger transfers are written together or not at all.
*/
package vault
