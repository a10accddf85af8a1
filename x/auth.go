package x

import (
	"github.com/iov-one/timevault"
)

// Authenticator reveals which conditions are fulfilled in a context.
// Handlers receive one at construction, so the signature scheme of
// x/sigs can be replaced or combined with others.
type Authenticator interface {
	GetConditions(timevault.Context) []timevault.Condition
	HasAddress(timevault.Context, timevault.Address) bool
}

// ChainAuth combines authenticators. A condition fulfilled by any of them
// is fulfilled by the chain.
func ChainAuth(impls ...Authenticator) Authenticator {
	return multiAuth(impls)
}

type multiAuth []Authenticator

func (m multiAuth) GetConditions(ctx timevault.Context) []timevault.Condition {
	var conds []timevault.Condition
	for _, a := range m {
		conds = append(conds, a.GetConditions(ctx)...)
	}
	return conds
}

func (m multiAuth) HasAddress(ctx timevault.Context, addr timevault.Address) bool {
	for _, a := range m {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// SignerOf returns the authenticated condition that controls addr. A nil
// condition is returned when nobody in the context owns that address.
func SignerOf(ctx timevault.Context, auth Authenticator, addr timevault.Address) timevault.Condition {
	for _, c := range auth.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return c
		}
	}
	return nil
}
