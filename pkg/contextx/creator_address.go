package contextx

import (
	"context"
	"fmt"
)

// CreatorAddress is the wallet address of the caller that owns the deals it creates.
type CreatorAddress string

type contextKeyCreatorAddress struct{}

func (c CreatorAddress) String() string {
	return string(c)
}

func WithCreatorAddress(ctx context.Context, address CreatorAddress) context.Context {
	return context.WithValue(ctx, contextKeyCreatorAddress{}, address)
}

func CreatorAddressFromContext(ctx context.Context) (CreatorAddress, error) {
	address, ok := ctx.Value(contextKeyCreatorAddress{}).(CreatorAddress)
	if !ok {
		return "", fmt.Errorf("creator address: %w", ErrNoValue)
	}

	return address, nil
}
