package vaulttest

import (
	"context"

	"github.com/iov-one/timevault"
)

// Auth authenticates a fixed set of conditions, Signers followed by Signer.
type Auth struct {
	Signer  timevault.Condition
	Signers []timevault.Condition
}

func (a *Auth) GetConditions(timevault.Context) []timevault.Condition {
	conds := append([]timevault.Condition(nil), a.Signers...)
	if a.Signer != nil {
		conds = append(conds, a.Signer)
	}
	return conds
}

func (a *Auth) HasAddress(ctx timevault.Context, addr timevault.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth authenticates the conditions attached to the context under Key.
// Instances using different keys do not see each other's conditions.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetConditions(ctx timevault.Context, conds ...timevault.Condition) timevault.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx timevault.Context) []timevault.Condition {
	conds, _ := ctx.Value(ctxAuthKey(a.Key)).([]timevault.Condition)
	return conds
}

func (a *CtxAuth) HasAddress(ctx timevault.Context, addr timevault.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []timevault.Condition, addr timevault.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
