// Command readinglistd serves the reading-list API: submitted URLs are
// fetched, reduced to plain text and summarized in the background while
// the API reports each item's progress.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	readinghttp "github.com/fwojciec/readinglist/http"
	"github.com/fwojciec/readinglist/openrouter"
	"github.com/fwojciec/readinglist/pipeline"
	"github.com/fwojciec/readinglist/regexp"
	"github.com/fwojciec/readinglist/sqlite"
)

// CLI defines the daemon's flags for Kong. Values can also come from
// the environment; a .env file is loaded when present.
type CLI struct {
	Addr         string        `default:":8080" env:"READINGLIST_ADDR" help:"HTTP bind address"`
	DB           string        `default:":memory:" env:"READINGLIST_DB" help:"SQLite database path"`
	APIKey       string        `env:"OPENROUTER_API_KEY" help:"OpenRouter API key"`
	Model        string        `default:"openai/gpt-3.5-turbo" env:"READINGLIST_MODEL" help:"OpenRouter model"`
	BaseURL      string        `default:"https://openrouter.ai/api/v1" env:"OPENROUTER_BASE_URL" help:"OpenRouter API base URL"`
	Referer      string        `default:"https://reading-list.app" help:"HTTP-Referer header sent to OpenRouter"`
	Title        string        `default:"Reading List AI" help:"X-Title header sent to OpenRouter"`
	FetchTimeout time.Duration `default:"10s" help:"Page fetch timeout"`
	LogLevel     string        `default:"info" enum:"trace,debug,info,warn,error" help:"Log level"`
}

func main() {
	_ = godotenv.Load()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("readinglistd"),
		kong.Description("Reading list server with automatic page summaries."),
	)
	kctx.FatalIfErrorf(run(cli))
}

func run(cli *CLI) error {
	level, err := zerolog.ParseLevel(cli.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cli.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if cli.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY not set. Get an API key at https://openrouter.ai/keys")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := sqlite.NewDB(cli.DB)
	if err := db.Open(); err != nil {
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer db.Close()

	items := sqlite.NewItemService(db)
	fetcher := readinghttp.NewFetcher(readinghttp.WithTimeout(cli.FetchTimeout))
	extractor := regexp.NewExtractor()
	summarizer := openrouter.NewSummarizer(cli.APIKey,
		openrouter.WithBaseURL(cli.BaseURL),
		openrouter.WithModel(cli.Model),
		openrouter.WithReferer(cli.Referer),
		openrouter.WithTitle(cli.Title),
	)

	processor := &pipeline.Processor{
		Fetcher:    fetcher,
		Extractor:  extractor,
		Summarizer: summarizer,
		Items:      items,
		Logger:     logger,
	}

	server := readinghttp.NewServer()
	server.Addr = cli.Addr
	server.Processor = processor
	server.ItemService = items
	server.Fetcher = fetcher
	server.Extractor = extractor
	server.Summarizer = summarizer
	server.Logger = logger

	if err := server.Open(); err != nil {
		return fmt.Errorf("failed to listen on %q: %w", cli.Addr, err)
	}
	logger.Info().Str("addr", cli.Addr).Msg("listening")

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if err := server.Close(); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	// Let in-flight submissions finish writing their outcome.
	processor.Wait()

	return nil
}
