package server

import (
	"github.com/go-chi/chi/v5"

	"dealmint/pkg/logx"
	"dealmint/pkg/middlewarex"
)

// Server joins the entity specific HTTP servers under one router.
type Server struct {
	DealServer
}

func NewServer(
	dealServer DealServer,
) Server {
	return Server{
		DealServer: dealServer,
	}
}

type RouterOptions struct {
	SensitiveDataMasker logx.SensitiveDataMaskerInterface
	LogFieldMaxLen      int
}

func NewRouter(s Server, opts RouterOptions) chi.Router {
	if opts.SensitiveDataMasker == nil {
		opts.SensitiveDataMasker = logx.NewNopSensitiveDataMasker()
	}

	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(opts.SensitiveDataMasker, opts.LogFieldMaxLen),
		middlewarex.ResponseLogging(opts.SensitiveDataMasker, opts.LogFieldMaxLen),
		middlewarex.Recovery,
		middlewarex.WalletAddress,
	)

	s.RegisterRoutes(r)

	return r
}
