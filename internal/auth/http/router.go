package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/internal/auth/store"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/jwtx"
	"github.com/opencivic/streetfix/pkg/slogx"

	_ "github.com/opencivic/streetfix/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	SessionService      *service.SessionService
	ResetService        *service.PasswordResetService
	VerificationService *service.VerificationService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerPasswordReset()
	r.registerVerification()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			StreetFix Auth Service API
//	@version		0.1.0
//	@description	Credential and session management for the StreetFix street-defect reporting app.
//	@description
//	@description	Access tokens are EdDSA-signed JWTs verifiable against the JWKS endpoint. Each
//	@description	account has at most one active session: logging in revokes prior refresh tokens.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	registerHandler := &RegisterHandler{SessionService: r.SessionService}
	loginHandler := &LoginHandler{SessionService: r.SessionService}
	refreshHandler := &RefreshHandler{SessionService: r.SessionService}
	logoutHandler := &LogoutHandler{SessionService: r.SessionService}
	passwordHandler := &PasswordHandler{SessionService: r.SessionService}
	meHandler := &UserInfoHandler{SessionService: r.SessionService}

	// POST /register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict limit keyed by IP + email to slow brute force
	// on a single account without letting one attacker lock out an office NAT
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// POST /refresh - moderate limit; mobile clients hit this often
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - takes the refresh token itself, no access token required
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(logoutHandler.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout-all - authenticated
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(logoutHandler.HandleLogoutAll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /password - authenticated password change
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(passwordHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// GET /me - authenticated profile lookup
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{ResetService: r.ResetService}

	// POST /password-reset/request - strict limit by IP + email; the service
	// also enforces a per-email daily budget
	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// POST /password-reset/confirm - strict limit by IP (code guessing)
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerVerification() {
	h := &VerificationHandler{VerificationService: r.VerificationService}

	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/verify-email/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerSystem() {
	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
