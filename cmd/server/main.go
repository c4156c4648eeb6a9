package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/worstcase/internal/ai"
	"github.com/kiliankoe/worstcase/internal/config"
	"github.com/kiliankoe/worstcase/internal/game"
	"github.com/kiliankoe/worstcase/internal/httpapi"
	"github.com/kiliankoe/worstcase/internal/ws"
	staticserver "github.com/kiliankoe/worstcase/static"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var version = "dev" // Set at build time via -ldflags

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Port    string           `help:"Port to listen on (overrides PORT)"`
	Cards   string           `type:"existingfile" help:"JSON file with scenario prompts (overrides CARDS_FILE)"`
	Seed    *int64           `help:"Deterministic RNG seed (overrides SEED)"`
	EnvFile []string         `name:"env-file" default:".env" help:"Dotenv files to load before reading the environment"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("worstcase"),
		kong.Description("Real-time Worst-Case Scenario party game server"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	kctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	cfg := config.Load(c.EnvFile...)
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if c.Cards != "" {
		cfg.CardsFile = c.Cards
	}
	if c.Seed != nil {
		cfg.Seed = *c.Seed
	}

	setupLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards, err := loadCards(ctx, cfg)
	if err != nil {
		return err
	}

	rm := game.NewRoomManager(game.Options{
		Clock:       quartz.NewReal(),
		SettleDelay: cfg.SettleDelay,
		Cards:       cards,
		Seed:        cfg.Seed,
	})
	defer rm.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger)

	sock := ws.New(rm, cfg)
	sock.Mount(r)
	defer sock.Close()
	httpapi.Register(r, rm, cfg)
	if cfg.StaticDir != "" {
		r.NoRoute(gin.WrapH(staticserver.Handler(cfg.StaticDir)))
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Int("cards", len(cards)).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// requestLogger logs HTTP requests, skipping Socket.IO polling noise.
func requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/socket.io") {
		return
	}
	log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
}

// loadCards reads the prompt pool and tops it up with generated scenarios
// when a provider is configured. Generation failures only cost the extras.
func loadCards(ctx context.Context, cfg config.Config) ([]string, error) {
	cards := game.DefaultCards
	if cfg.CardsFile != "" {
		loaded, err := game.LoadCards(cfg.CardsFile)
		if err != nil {
			return nil, err
		}
		cards = loaded
	}

	provider, err := ai.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return cards, nil
	}
	genCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	extra, err := ai.GenerateScenarios(genCtx, provider, cfg.ScenarioModel, cfg.ScenarioCount)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.ScenarioProvider).Msg("scenario generation failed, using static cards")
		return cards, nil
	}
	log.Info().Int("generated", len(extra)).Str("provider", cfg.ScenarioProvider).Msg("scenarios generated")
	return game.NormalizeCards(append(append([]string(nil), cards...), extra...)), nil
}
