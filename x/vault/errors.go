package vault

import "github.com/iov-one/timevault/errors"

// x/vault reserves 3000 ~ 3009.
var (
	ErrAlreadyExists  = errors.Register(3000, "vault already exists")
	ErrVaultNotFound  = errors.Register(3001, "vault not found")
	ErrInvalidAmount  = errors.Register(3002, "invalid amount")
	ErrOverflow       = errors.Register(3003, "balance overflow")
	ErrTransferFailed = errors.Register(3004, "transfer failed")
	ErrUnauthorized   = errors.Register(3005, "unauthorized")
)
