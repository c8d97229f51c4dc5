package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

type Config struct {
	Debug     bool
	BodyLimit int
}

// RouteRegistrar captures the router methods used by the server.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// Server wires the account, offer and payment services to router handlers
type Server struct {
	accounts *auth.AccountService
	offers   *auth.OfferService
	payments *auth.PaymentService
	tokens   auth.TokenValidator
	logger   auth.Logger
	cfg      Config
}

type Option func(*Server)

func WithLogger(logger auth.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

func NewServer(accounts *auth.AccountService, offers *auth.OfferService, payments *auth.PaymentService, tokens auth.TokenValidator, opts ...Option) *Server {
	s := &Server{
		accounts: accounts,
		offers:   offers,
		payments: payments,
		tokens:   tokens,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// App builds the fiber application and mounts every route on it through
// the router adapter.
func (s *Server) App() *fiber.App {
	cfg := fiber.Config{
		ErrorHandler:          NewErrorHandler(s.logger, s.cfg.Debug),
		DisableStartupMessage: true,
	}
	if s.cfg.BodyLimit > 0 {
		cfg.BodyLimit = s.cfg.BodyLimit
	}

	app := fiber.New(cfg)
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App { return app })
	RegisterRoutes(srv.Router(), s)
	return app
}

// RegisterRoutes mounts the API under /api on any router adapter
func RegisterRoutes[T any](r router.Router[T], s *Server) {
	s.Register(
		r.Group("/api/account"),
		r.Group("/api/company"),
		r.Group("/api/offers"),
		r.Group("/api/payments"),
	)
}

// Register mounts the routes on the account, company, offer and payment groups
func (s *Server) Register(account, company, offers, payments RouteRegistrar) {
	protected := jwtware.New(jwtware.Config{
		TokenValidator: s.tokens,
		ErrorHandler:   s.renderError,
	})

	h := s.handle

	account.Post("/RegisterAccountCompany", h(s.registerCompanyAccount)).SetName("account.register_company")
	account.Post("/login", h(s.login)).SetName("account.login")
	account.Post("/RegisterEmployee", h(s.registerEmployee), protected).SetName("account.register_employee")
	account.Get("/AccountProfile", h(s.profile), protected).SetName("account.profile")
	account.Get("/GetAllCompanyAccounts", h(s.listCompanyAccounts), protected).SetName("account.list")
	account.Put("/password", h(s.changePassword), protected).SetName("account.password")
	account.Put("/email", h(s.changeEmail), protected).SetName("account.email")
	account.Delete("/", h(s.deleteAccount), protected).SetName("account.delete_self")
	account.Get("/:id", h(s.getAccount), protected).SetName("account.get")
	account.Delete("/:id", h(s.deleteAccount), protected).SetName("account.delete")

	company.Get("/", h(s.getCompany), protected).SetName("company.get")
	company.Get("/all", h(s.listCompanies), protected).SetName("company.list")
	company.Delete("/", h(s.deleteCompany), protected).SetName("company.delete")

	offers.Post("/", h(s.createOffer), protected).SetName("offers.create")
	offers.Get("/", h(s.listOffers), protected).SetName("offers.list")
	offers.Get("/applications", h(s.searchApplications), protected).SetName("applications.search")
	offers.Get("/:id/applications", h(s.listApplications), protected).SetName("applications.list")
	offers.Post("/:id/applications", h(s.apply)).SetName("applications.create")

	payments.Post("/", h(s.createPayment), protected).SetName("payments.create")
	payments.Get("/", h(s.listPayments), protected).SetName("payments.list")
	payments.Get("/:id", h(s.getPayment), protected).SetName("payments.get")
}

// handle renders handler errors as JSON responses
func (s *Server) handle(next router.HandlerFunc) router.HandlerFunc {
	return func(c router.Context) error {
		if err := next(c); err != nil {
			return s.renderError(c, err)
		}
		return nil
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
