package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	"github.com/soaringjerry/feedbacktool/internal/ai"
	"github.com/soaringjerry/feedbacktool/internal/api"
	"github.com/soaringjerry/feedbacktool/internal/config"
	"github.com/soaringjerry/feedbacktool/internal/db"
	"github.com/soaringjerry/feedbacktool/internal/middleware"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

// App is everything a command can reach.
type App struct {
	Config     *config.Config
	Log        *slog.Logger
	Locale     string
	Out        io.Writer
	Store      *db.SQLiteStore
	Session    *services.SessionService
	Surveys    *api.SurveyAdapter
	Builder    *services.BuilderService
	Respondent *services.RespondentService
	Analytics  *services.AnalyticsService
	Export     *services.ExportService
	Phrasing   *services.PhrasingService
}

var storeModule = fx.Module("store",
	fx.Provide(provideStore),
)

var clientModule = fx.Module("client",
	fx.Provide(
		newSessionLink,
		provideClient,
		api.NewSurveyAdapter,
		provideSession,
	),
)

var serviceModule = fx.Module("services",
	fx.Provide(
		provideAI,
		provideBuilder,
		provideRespondent,
		provideAnalytics,
		provideExport,
		services.NewPhrasingService,
		newApp,
	),
)

func provideStore(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*db.SQLiteStore, error) {
	conn, err := db.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	sealer, err := db.NewSealer(cfg.Store.Secret)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	store, err := db.NewSQLiteStore(conn, sealer, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := db.RunMigrations(ctx, conn, cfg.Store.MigrationsDir)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			if n > 0 {
				log.Info("migrations applied", "count", n)
			}
			return importLegacySession(ctx, cfg.Store.LegacySessionFile, store, log)
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// sessionLink lets the transport reach the session service, which itself sits on top of
// the client.
type sessionLink struct {
	s *services.SessionService
}

func newSessionLink() *sessionLink { return &sessionLink{} }

func (l *sessionLink) Token() string {
	if l.s == nil {
		return ""
	}
	return l.s.Token()
}

// expire clears the session when the request that got a 401 carried the token the
// session still holds; a stale token from a replaced session is ignored.
func (l *sessionLink) expire(r *http.Request) {
	if l.s == nil {
		return
	}
	tok := l.s.Token()
	if tok == "" || r.Header.Get("Authorization") != "Bearer "+tok {
		return
	}
	l.s.Expire(context.WithoutCancel(r.Context()))
}

func provideClient(cfg *config.Config, log *slog.Logger, link *sessionLink) *api.Client {
	rt := middleware.Chain(nil,
		middleware.UserAgent(cfg.API.UserAgent),
		middleware.NoStore,
		middleware.AcceptLanguage(cfg.ResolvedLocale()),
		middleware.BearerAuth(link),
		middleware.RequireTLS(cfg.API.AllowInsecureHTTP),
		middleware.OnUnauthorized(link.expire),
	)
	return api.New(cfg.API.BaseURL, rt, cfg.API.Timeout, log.With("component", "api"))
}

func provideSession(c *api.Client, store *db.SQLiteStore, link *sessionLink, log *slog.Logger) *services.SessionService {
	s := services.NewSessionService(api.NewSessionAPI(c), store, log.With("component", "session"))
	link.s = s
	return s
}

func provideAI(lc fx.Lifecycle, cfg *config.Config) (ai.Generator, error) {
	p, err := ai.New(context.Background(), cfg.AI)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return p.Close() }})
	return p, nil
}

func provideBuilder(a *api.SurveyAdapter, cfg *config.Config, log *slog.Logger) *services.BuilderService {
	return services.NewBuilderService(a, log).WithEditPolicy(cfg.Builder.RatingEdit)
}

func provideRespondent(c *api.Client, s *services.SessionService, log *slog.Logger) *services.RespondentService {
	return services.NewRespondentService(api.NewPublicSurveyAPI(c), s, log)
}

func provideAnalytics(a *api.SurveyAdapter) *services.AnalyticsService {
	return services.NewAnalyticsService(a)
}

func provideExport(a *api.SurveyAdapter, log *slog.Logger) *services.ExportService {
	return services.NewExportService(a, log)
}

type appParams struct {
	fx.In

	Config     *config.Config
	Log        *slog.Logger
	Out        io.Writer
	Store      *db.SQLiteStore
	Session    *services.SessionService
	Surveys    *api.SurveyAdapter
	Builder    *services.BuilderService
	Respondent *services.RespondentService
	Analytics  *services.AnalyticsService
	Export     *services.ExportService
	Phrasing   *services.PhrasingService
}

func newApp(p appParams) *App {
	return &App{
		Config:     p.Config,
		Log:        p.Log,
		Locale:     p.Config.ResolvedLocale(),
		Out:        p.Out,
		Store:      p.Store,
		Session:    p.Session,
		Surveys:    p.Surveys,
		Builder:    p.Builder,
		Respondent: p.Respondent,
		Analytics:  p.Analytics,
		Export:     p.Export,
		Phrasing:   p.Phrasing,
	}
}
