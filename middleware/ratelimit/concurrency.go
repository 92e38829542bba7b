package ratelimit

import (
	"context"
	"net/http"
	"time"

	"retail-gateway/middleware/ratelimit/infra"
	"retail-gateway/web"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware limita requests em voo com um semáforo de canal.
// Com Max <= 0 o middleware é desligado. AcquireTimeout == 0 espera até o
// contexto do request encerrar.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	pool := infra.NewChanPool(opts.Max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if opts.AcquireTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.AcquireTimeout)
				defer cancel()
			}

			release, ok := pool.Acquire(ctx)
			if !ok {
				web.Error(w, opts.RejectStatus, "Too many concurrent requests")
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
