package server

import "context"

type contextKey int

const ctxKeyPrincipal contextKey = 0

func contextWithPrincipal(ctx context.Context, p *principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func principalFrom(ctx context.Context) *principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(*principal)
	return p
}
