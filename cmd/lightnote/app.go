package main

import (
	"github.com/TobiSchelling/lightnote/internal/config"
	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/ingest"
	"github.com/TobiSchelling/lightnote/internal/insights"
	"github.com/TobiSchelling/lightnote/internal/kv"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/pipeline"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/sentiment"
	"github.com/TobiSchelling/lightnote/internal/server"
	"github.com/TobiSchelling/lightnote/internal/themes"
)

// app holds the wired components one command run needs.
type app struct {
	db          *database.DB
	provider    llm.Provider
	providerErr error
	dispatcher  *sentiment.Dispatcher
	gen         *pipeline.Generator
	insights    *insights.Service
}

func openApp() (*app, error) {
	db, err := database.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	a := &app{db: db}
	a.provider, a.providerErr = llm.CreateProvider(cfg.ProviderOptions())
	if a.providerErr != nil {
		a.provider = llm.Unconfigured{Err: a.providerErr}
	}

	lex, err := sentiment.NewLexicon()
	if err != nil {
		db.Close()
		return nil, err
	}
	a.dispatcher = sentiment.NewDispatcher(lex, cfg.Sentiment.Workers, sentiment.WithTimeout(cfg.Sentiment.Timeout))

	extractor := themes.NewExtractor(
		a.provider,
		themes.NewCache(cacheStore(cfg, db, themes.Namespace)),
		themes.WithMaxTokens(cfg.LLM.MaxTokens),
		themes.WithTemperature(cfg.LLM.Temperature),
	)
	a.gen = pipeline.New(db, rollup.NewCache(cacheStore(cfg, db, rollup.Namespace)), extractor, cfg.TrackedEntities())
	a.insights = insights.NewService(db)
	return a, nil
}

// cacheStore returns the blob store backing one cache namespace.
func cacheStore(c *config.Config, db *database.DB, namespace string) kv.Store {
	if c.Storage.Backend == config.BackendFiles {
		return kv.WithPrefix(kv.NewFileStore(c.CacheDir()), namespace)
	}
	return db.Blobs(namespace)
}

// reflector returns the provider for user-initiated reflection, or nil when
// none could be created.
func (a *app) reflector() llm.Provider {
	if a.providerErr != nil {
		return nil
	}
	return a.provider
}

func (a *app) importer() *ingest.Importer {
	return ingest.NewImporter(a.db, a.dispatcher)
}

func (a *app) server() (*server.Server, error) {
	return server.New(a.db, a.gen, a.insights, a.reflector())
}

func (a *app) Close() {
	a.dispatcher.Close()
	a.db.Close()
}
