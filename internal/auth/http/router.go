package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/service"
	"github.com/aussiebroadwan/totpgate/pkg/authsdk"
	"github.com/aussiebroadwan/totpgate/pkg/httpx"
	"github.com/aussiebroadwan/totpgate/pkg/jwtx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"

	_ "github.com/aussiebroadwan/totpgate/api/auth" // Swagger docs
	"github.com/gorilla/handlers"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultAllowedOrigins is the development front end.
var DefaultAllowedOrigins = []string{"http://localhost:5173"}

// Options tunes the router. Zero values fall back to defaults.
type Options struct {
	ChallengeTTL   time.Duration
	CookieSecure   bool
	AllowedOrigins []string
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	challenges   *jwtx.HS256
	opts         Options
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	checks       ReadinessChecks

	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func NewRouter(
	challenges *jwtx.HS256,
	buildVersion string,
	checks ReadinessChecks,
	logger *slog.Logger,
	opts Options,
) *Router {
	if opts.ChallengeTTL <= 0 {
		opts.ChallengeTTL = jwtx.DefaultChallengeTTL
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultAllowedOrigins
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		challenges:   challenges,
		opts:         opts,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		checks:       checks,
		logger:       logger,
	}

	// Logging runs outermost so preflight requests are logged too.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		handlers.CORS(
			handlers.AllowedOrigins(opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", slogx.RequestIDHeader}),
			handlers.ExposedHeaders([]string{slogx.RequestIDHeader}),
			handlers.AllowCredentials(),
		),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSignup()
	r.registerLogin()
	r.registerAccount()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TOTPGate Authentication Service API
//	@version		0.1.0
//	@description	Email/password signup and login with a mandatory TOTP second factor.
//	@description
//	@description	A successful login sets an HttpOnly session cookie valid for one hour.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/totpgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						totpgate_session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authHandler() *AuthHandler {
	return &AuthHandler{
		AuthService:    r.AuthService,
		SessionService: r.SessionService,
		Challenges:     r.challenges,
		ChallengeTTL:   r.opts.ChallengeTTL,
		CookieSecure:   r.opts.CookieSecure,
	}
}

func (r *Router) registerSignup() {
	h := r.authHandler()

	r.Mux.HandleFunc("POST /api/signup", h.HandleSignup)
	r.Mux.HandleFunc("POST /api/signup/verify", h.HandleSignupVerify)
}

func (r *Router) registerLogin() {
	h := r.authHandler()

	r.Mux.HandleFunc("POST /api/login", h.HandleLogin)
	r.Mux.HandleFunc("POST /api/login/verify", h.HandleLoginVerify)
	r.Mux.HandleFunc("GET /api/qrcode", h.HandleQRCode)
}

func (r *Router) registerAccount() {
	h := r.authHandler()

	// GET /api/me requires a live session
	r.Mux.Handle("GET /api/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.SessionMiddleware(authsdk.SessionCookieName, r.SessionService),
		),
	)

	// POST /api/logout succeeds with or without a session
	r.Mux.HandleFunc("POST /api/logout", h.HandleLogout)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.checks))
}
