package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gatepass/internal/infra/logging"
	"gatepass/internal/usecase"
)

type Server struct {
	passUC   *usecase.PassUseCase
	redeemUC *usecase.RedeemUseCase

	apiKey        string
	scannerSecret []byte
	dev           bool
	log           *zerolog.Logger

	// now is swappable in tests.
	now func() time.Time

	srv *http.Server
}

func NewServer(passUC *usecase.PassUseCase, redeemUC *usecase.RedeemUseCase, apiKey, scannerSecret string, dev bool, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		passUC:        passUC,
		redeemUC:      redeemUC,
		apiKey:        apiKey,
		scannerSecret: []byte(scannerSecret),
		dev:           dev,
		log:           &l,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// requestContext copies chi's request ID into the logging context so
// component loggers can correlate entries per request.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := chimw.GetReqID(ctx); id != "" {
			ctx = logging.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Routes builds the full router: public scan link, authenticated scanner
// redemption, and the admin issuance API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestContext)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Guest-facing scan link; the code in the URL is the credential.
	r.Get("/scan/{code}", s.handleScanPage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.scannerAuth)
			r.Post("/redeem", s.handleRedeem)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Post("/passes", s.handleIssuePass)
			r.Get("/passes/{code}", s.handleGetPass)
			r.Get("/passes/{code}/image", s.handlePassImage)
			r.Get("/passes/{code}/events", s.handlePassEvents)
			r.Post("/scanners/token", s.handleScannerToken)
		})
	})

	return r
}

func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("http server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
