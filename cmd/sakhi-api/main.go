package main

import (
	"context"
	"net/http"
	"os"

	httpadapter "github.com/krishisakhi/sakhi-agent/internal/adapters/http"
	"github.com/krishisakhi/sakhi-agent/internal/adapters/llm"
	"github.com/krishisakhi/sakhi-agent/internal/adapters/signals"
	firestorestore "github.com/krishisakhi/sakhi-agent/internal/adapters/storage/firestore"
	memstore "github.com/krishisakhi/sakhi-agent/internal/adapters/storage/memory"
	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/config"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

func main() {
	ctx := context.Background()
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// Model: Gemini or mock (useful for dev)
	var model domain.ModelClient
	if cfg.UseMockLLM {
		log.Info("using mock model client")
		model = llm.NewMockModel()
	} else {
		log.Info("using Gemini model client", "model", cfg.ModelName)
		model, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Error("failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
	}

	// Storage: Firestore or Memory
	var (
		plotStore    domain.PlotStore
		profileStore domain.ProfileStore
		messageStore domain.MessageStore
	)

	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using Firestore storage", "project", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Error("failed to initialize Firestore store", "error", err)
			os.Exit(1)
		}

		// 1 store, implements 3 interfaces
		plotStore = fsStore
		profileStore = fsStore
		messageStore = fsStore

	default:
		log.Info("using in-memory storage")
		plotStore = memstore.NewPlotStore()
		profileStore = memstore.NewProfileStore()
		messageStore = memstore.NewMessageStore()
	}

	// Simulated real-time feed and plot history lookup
	signalSource := signals.NewStaticSource()
	history := signals.NewStaticHistory()

	builder := advisory.NewContextBuilder(history, signalSource)
	composer := llm.NewComposer()
	invoker := llm.NewInvoker(model)
	logSync := chatlog.New(messageStore)

	// No speech hardware on the server; hosts embedding the advisory
	// core wire a speech.Coordinator here.
	svc := advisory.NewService(plotStore, profileStore, logSync, builder, composer, invoker, nil)

	handler := httpadapter.NewServer(svc, plotStore, profileStore, messageStore, signalSource)

	addr := ":" + cfg.Port
	log.Info("sakhi API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
