package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"pricecast/internal/client"
	"pricecast/internal/config"
	"pricecast/internal/db"
	"pricecast/internal/repository"
	"pricecast/internal/sshauth"
	"pricecast/internal/tui"
	"pricecast/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
)

type sshUserKey struct{}

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initTracerFunc        = tracing.InitTracer
	startSSHServerFunc    = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownSSHServerFunc = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify     = ossignal.Notify
	waitForSignalFunc     = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	initPostgresFunc(ctx)
	defer db.Close()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var users sshauth.UserStore
	if db.Pool != nil {
		repo := repository.NewSSHUserRepository(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run ssh user migrations: %v", err)
		}
		if n, err := repo.CountActive(ctx); err == nil {
			log.Printf("%d ssh users allowed", n)
		}
		users = repo
	}
	auth := sshauth.New(users, tracer)
	if auth.Open() {
		log.Println("DATABASE_URL not set, accepting any SSH public key")
	}

	api := client.New(cfg.APIBaseURL, time.Duration(cfg.ClientTimeoutSecs)*time.Second, cfg.ProductDescription)
	base := tui.Services{
		Forecasts:     api,
		Subscriptions: api,
		Product:       cfg.Product(),
	}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.SSHHost, strconv.Itoa(cfg.SSHPort))),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(sctx ssh.Context, key ssh.PublicKey) bool {
			user, ok := auth.Authorize(sctx, key)
			if ok && user != nil {
				sctx.SetValue(sshUserKey{}, user)
			}
			return ok
		}),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(base, auth)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create ssh server: %v", err)
	}

	go func() {
		log.Printf("SSH server listening on %s", srv.Addr)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalf("ssh server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Fatal("SSH server forced to shutdown:", err)
	}
	log.Println("SSH server exiting")
}

type sessionRecorder interface {
	RecordSession(ctx context.Context, user *repository.SSHUser)
}

func teaHandler(base tui.Services, rec sessionRecorder) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		user, _ := s.Context().Value(sshUserKey{}).(*repository.SSHUser)
		svc := startSession(s.Context(), base, s.User(), user, rec)
		return tui.NewAppModel(svc), []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// startSession records the login of an authenticated session and builds its
// services.
func startSession(ctx context.Context, base tui.Services, login string, user *repository.SSHUser, rec sessionRecorder) tui.Services {
	rec.RecordSession(ctx, user)
	return servicesFor(base, login, user)
}

// servicesFor names the session after the registered user when there is one
// and prefills their phone number.
func servicesFor(base tui.Services, login string, user *repository.SSHUser) tui.Services {
	svc := base
	svc.Username = login
	if user != nil {
		svc.Username = user.Username
		svc.DefaultPhone = user.PhoneNumber
	}
	return svc
}
