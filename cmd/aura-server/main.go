package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	aurauth "github.com/aura-labs/aurauth"
	"github.com/aura-labs/aurauth/mail"
	"github.com/aura-labs/aurauth/middleware"
	"github.com/aura-labs/aurauth/store"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	_ = godotenv.Load()

	production := envOr("APP_ENV", "development") == "production"

	logger, err := newLogger(production)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET is not set, refusing to start")
	}

	cfg := aurauth.DefaultConfig()
	cfg.JWT.Secret = []byte(secret)
	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	cfg.Mail.Sender = envOr("SENDER_EMAIL", "no-reply@aura.example")
	cfg.Cookie.Production = production

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}

	mailer, err := newMailer(logger)
	if err != nil {
		logger.Fatal("mailer setup failed", zap.Error(err))
	}

	st := store.New(rdb, envOr("REDIS_PREFIX", "aura"))

	engine, err := aurauth.New().
		WithConfig(cfg).
		WithCredentialStore(st).
		WithOrderStore(st).
		WithPaymentGateway(newGatewayFromEnv()).
		WithMailer(mailer).
		WithAuditSink(aurauth.NewJSONWriterSink(os.Stdout)).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal("engine build failed", zap.Error(err))
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", "4000"),
		Handler:           newRouter(engine, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newMailer picks SMTP when a relay is configured, otherwise the
// log-only mailer so local runs still show OTPs.
func newMailer(logger *zap.Logger) (aurauth.Mailer, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		logger.Info("SMTP_HOST not set, using log mailer")
		return mail.NewLog(logger), nil
	}

	port, err := strconv.Atoi(envOr("SMTP_PORT", "587"))
	if err != nil {
		return nil, err
	}

	return mail.NewSMTP(mail.Config{
		Host:       host,
		Port:       port,
		Username:   os.Getenv("SMTP_USER"),
		Password:   os.Getenv("SMTP_PASS"),
		Sender:     envOr("SENDER_EMAIL", "no-reply@aura.example"),
		SenderName: "AURA E-Commerce",
	})
}

func newRouter(engine *aurauth.Engine, cfg aurauth.Config, logger *zap.Logger) http.Handler {
	h := &handlers{engine: engine, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(clientIP)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))

	var origins []string
	for _, p := range strings.Split(envOr("CORS_ORIGINS", "http://localhost:5173,http://localhost:5174"), ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "token"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	guard := middleware.Guard(engine, cfg.Cookie.Name)
	adminGuard := middleware.AdminGuard(engine, cfg.Cookie.Name)

	r.Get("/", h.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		// Logout stays outside the guard: it must clear the cookie even
		// when no usable token came with the request.
		r.Post("/logout", h.logout)
		r.Post("/admin-login", h.adminLogin)
		r.Post("/send-reset-otp", h.sendResetOTP)
		r.Post("/reset-password", h.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Get("/data", h.userData)
			r.Get("/is-auth", h.isAuthenticated)
			r.Post("/send-verify-otp", h.sendVerifyOTP)
			r.Post("/verify-account", h.verifyAccount)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(guard)
		r.Post("/add", h.cartAdd)
		r.Post("/update", h.cartUpdate)
		r.Post("/get", h.cartGet)
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/place", h.orderPlace)
			r.Post("/razorpay", h.orderRazorpay)
			r.Post("/verifyRazorpay", h.orderVerifyRazorpay)
			r.Post("/userorders", h.userOrders)
		})
		r.Group(func(r chi.Router) {
			r.Use(adminGuard)
			r.Post("/list", h.listOrders)
			r.Post("/status", h.orderStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, envelope{Success: false, Message: "Not found"})
	})

	return r
}

func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(aurauth.WithClientIP(r.Context(), r.RemoteAddr)))
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					respond(w, http.StatusInternalServerError, envelope{Success: false, Message: "Something went wrong"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
