package internal

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"plant-maint-api/internal/auth"
	"plant-maint-api/internal/config"
	"plant-maint-api/internal/gateway"
	"plant-maint-api/internal/handlers"
	"plant-maint-api/internal/sheet"
)

type Server struct {
	Store   sheet.Store
	Gateway *gateway.Gateway
	Router  *chi.Mux
	JWT     *auth.JWTManager
	Creds   *auth.Credentials
	Metrics *Metrics
	Log     *zap.Logger
}

// NewServer wires the router around a table store. The store is injected
// rather than built here so tests run against the in-memory backend.
func NewServer(store sheet.Store, creds *auth.Credentials, cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)

	metrics := NewMetrics()
	measured := metrics.MeasureStore(store)

	s := &Server{
		Store:   measured,
		Gateway: gateway.New(measured, log),
		Router:  chi.NewRouter(),
		JWT:     jwtManager,
		Creds:   creds,
		Metrics: metrics,
		Log:     log,
	}

	s.Router.Use(RequestID, RequestLogger(log))

	// Public routes first, no auth middleware.
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Post("/auth/login", s.loginUser)

	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.JWT))
		s.mountProtectedRoutes(r)
	})

	return s
}

// mountProtectedRoutes mounts all routes that require authentication.
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Maintenance history: rows are keyed by date + equipment label, so
	// update/delete take the key from query params rather than a path id.
	r.Get("/maintenance", s.listMaintenance)
	r.Post("/maintenance", s.createMaintenance)
	r.Put("/maintenance", s.updateMaintenance)
	r.Delete("/maintenance", s.deleteMaintenance)
	r.Get("/maintenance/images", s.getMaintenanceImage)

	// Stock
	r.Get("/stock", s.listStock)
	r.Get("/stock/low", s.listLowStock)
	r.Post("/stock", s.upsertStock)
	r.Delete("/stock/{name}", s.deleteStock)

	// Dashboard
	r.Get("/dashboard/summary", s.categorySummary)
	r.Get("/dashboard/costs", s.monthlyCosts)

	// Excel bulk import
	importsHandler := handlers.NewImportsHandler(s.Store, s.Log)
	r.Post("/imports/excel", importsHandler.UploadExcel)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// loginUser checks the credential list and issues a JWT, returned in the
// body and set as a cookie for clients that keep session state that way.
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidationError(w, "", "invalid JSON")
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		writeValidationError(w, "username", "username and password are required")
		return
	}
	if !s.Creds.Verify(in.Username, in.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "invalid credentials",
			"code":  "INVALID_CREDENTIALS",
		})
		return
	}
	token, err := s.JWT.GenerateToken(in.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	claims, _ := s.JWT.ValidateToken(token)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  claims.ExpiresAt.Time,
	})
	s.Log.Info("login", zap.String("username", in.Username))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}
