package server

import (
	"context"
	"log"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfrag/app/agent"
	"pdfrag/app/api"
	"pdfrag/extract"
	"pdfrag/media"
	"pdfrag/model"
	"pdfrag/pipeline"
	"pdfrag/store"
	"pdfrag/summarizer"
	"pdfrag/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    100 * 1024 * 1024,
}

type Server struct {
	cfg    types.Config
	app    *fiber.App
	logger *slog.Logger
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	docStore, err := store.New(ctx, s.cfg)
	if err != nil {
		log.Fatal("error to initialize document store: ", err)
		return
	}

	embedder := model.NewOllamaEmbedder(s.cfg.OllamaBaseURL, s.cfg.EmbedModel)
	generator := model.NewOllamaGenerator(s.cfg.OllamaBaseURL, s.cfg.OllamaModel)

	summ, err := summarizer.New(generator, s.cfg.SummaryMapChars)
	if err != nil {
		log.Fatal("error to initialize summarizer: ", err)
		return
	}

	pipe := pipeline.New(
		docStore,
		extract.NewPDFExtractor(),
		embedder,
		summ,
		media.NewEdgeTTS(s.cfg.TTSVoice),
		media.NewFFmpegRenderer(s.cfg.FFmpegPath),
		s.cfg,
		s.logger,
	)
	answerer := agent.New(generator, embedder, s.cfg.TopK, s.cfg.MaxContextChars)

	var (
		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler()
		documentHandler = api.NewDocumentHandler(docStore, pipe)
		chatHandler     = api.NewChatHandler(docStore, answerer)
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1")
	)
	s.app = app

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/documents", documentHandler.HandleUpload)
	apiv1.Delete("/documents/:id", documentHandler.HandleDelete)
	apiv1.Get("/documents/:id/status", documentHandler.HandleStatus)
	apiv1.Get("/documents/:id/summary", documentHandler.HandleSummary)
	apiv1.Get("/documents/:id/audio", documentHandler.HandleAudio)
	apiv1.Get("/documents/:id/video", documentHandler.HandleVideo)
	apiv1.Post("/chat", chatHandler.HandleChat)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr, "store", s.cfg.Store)
	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}
