package cctx

import "context"

// WithValues attaches key/value pairs to the context in one call.
func WithValues(parent context.Context, pairs ...interface{}) (ctx context.Context) {
	if len(pairs)%2 != 0 {
		panic("uneven")
	}

	ctx = parent
	for i := 0; i < len(pairs); i += 2 {
		ctx = context.WithValue(ctx, pairs[i], pairs[i+1])
	}
	return
}
