package http

import (
	"context"
	"net/http"
	"trust-multisig/internal/app"
	"trust-multisig/internal/ports/http/middleware/auth"
	"trust-multisig/internal/ports/http/middleware/cors"
	"trust-multisig/internal/ports/http/middleware/ratelimit"
	"trust-multisig/internal/ports/http/middleware/requestid"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Options struct {
	// HMAC key of the bearer tokens; empty disables signature checks
	AuthSecret string
	// zero disables rate limiting
	RateLimitPerMinute int
	// rate limit by forwarding headers; only set behind a trusted proxy
	TrustProxy bool
}

type server struct {
	app        *app.App
	httpServer *http.Server
	addr       string
	logger     *zap.Logger
	validator  auth.TokenValidator
	limiter    *ratelimit.IPRateLimiter
}

func NewServer(logger *zap.Logger, a *app.App, address string, opts Options) *server {
	ser := &server{
		app:       a,
		addr:      address,
		logger:    logger,
		validator: auth.NewTokenValidator(logger, opts.AuthSecret),
	}
	if opts.RateLimitPerMinute > 0 {
		ser.limiter = ratelimit.NewIPRateLimiter(opts.RateLimitPerMinute, opts.TrustProxy)
	}
	ser.httpServer = &http.Server{
		Handler: ser.Handler(),
		Addr:    address,
	}
	return ser
}

func (ser *server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/health", healthcheck)
	router.Handle("/metrics", promhttp.Handler())

	router.HandleFunc("/api/quorum", ser.getQuorum).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshot", ser.getSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/api/events", ser.getEvents).Methods(http.MethodGet)

	router.HandleFunc("/api/owners", ser.getOwners).Methods(http.MethodGet)
	router.Handle("/api/owners", ser.authenticated(ser.postOwner)).Methods(http.MethodPost)
	router.HandleFunc("/api/owners/{ownerID}", ser.getOwner).Methods(http.MethodGet)
	router.Handle("/api/owners/{ownerID}/support", ser.authenticated(ser.putSupport)).Methods(http.MethodPut)
	router.Handle("/api/owners/{ownerID}/support", ser.authenticated(ser.deleteSupport)).Methods(http.MethodDelete)

	router.HandleFunc("/api/transactions", ser.getTransactions).Methods(http.MethodGet)
	router.Handle("/api/transactions", ser.authenticated(ser.postTransaction)).Methods(http.MethodPost)
	router.HandleFunc("/api/transactions/{index}", ser.getTransaction).Methods(http.MethodGet)
	router.Handle("/api/transactions/{index}/confirmation", ser.authenticated(ser.putConfirmation)).Methods(http.MethodPut)
	router.Handle("/api/transactions/{index}/revocation", ser.authenticated(ser.putRevocation)).Methods(http.MethodPut)
	router.Handle("/api/transactions/{index}/execution", ser.authenticated(ser.postExecution)).Methods(http.MethodPost)

}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

func (ser *server) authenticated(handler http.HandlerFunc) http.Handler {
	return ser.validator.Authenticate(handler)
}

// Handler is the complete middleware chain around the router.
func (ser *server) Handler() http.Handler {
	router := mux.NewRouter()
	ser.registerHandlers(router)

	var handler http.Handler = router
	if ser.limiter != nil {
		handler = ser.limiter.Middleware(handler)
	}
	handler = requestid.Middleware(handler)
	handler = cors.AddCorsPolicy(handler)
	return otelhttp.NewHandler(handler, "multisig")
}

func (ser *server) Run() error {
	ser.logger.Info("listening", zap.String("addr", ser.addr))
	if err := ser.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ser *server) Shutdown(ctx context.Context) error {
	return ser.httpServer.Shutdown(ctx)
}
