package sigs

import (
	"context"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/x"
)

type signersKey struct{}

// withSigners is only called by the Decorator, after verification.
func withSigners(ctx timevault.Context, signers []timevault.Condition) timevault.Context {
	return context.WithValue(ctx, signersKey{}, signers)
}

// Authenticate reports the signers verified by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

func (Authenticate) GetConditions(ctx timevault.Context) []timevault.Condition {
	signers, _ := ctx.Value(signersKey{}).([]timevault.Condition)
	return signers
}

func (a Authenticate) HasAddress(ctx timevault.Context, addr timevault.Address) bool {
	return x.SignerOf(ctx, a, addr) != nil
}
