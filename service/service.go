package service

import (
	"context"
	"fmt"
	"time"

	"incident-board/config"
	"incident-board/database"
	"incident-board/handlers"
	"incident-board/ingest"
	"incident-board/metrics"
	"incident-board/mongostore"
	"incident-board/rabbitmq"
	"incident-board/websocket"

	"github.com/apex/log"
)

// reportStore is a ReportStore the service owns and must close
type reportStore interface {
	ingest.ReportStore
	Ping(ctx context.Context) error
	Close() error
}

// Service wires the report store, ingestion flow and realtime hub together
type Service struct {
	config    *config.Config
	store     reportStore
	hub       *websocket.Hub
	publisher *rabbitmq.Publisher
	ingestor  *ingest.Service
	handlers  *handlers.Handlers
}

// NewService creates a new incident board service
func NewService(cfg *config.Config) (*Service, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	metrics.Register()

	hub := websocket.NewHub()

	// Keep the interface nil when AMQP is disabled; a typed nil would be called
	var events ingest.EventPublisher
	var publisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
		}
		events = publisher
	}

	ingestor := ingest.NewService(store, hub, events)

	return &Service{
		config:    cfg,
		store:     store,
		hub:       hub,
		publisher: publisher,
		ingestor:  ingestor,
		handlers:  handlers.NewHandlers(ingestor, hub, store, cfg.StoreName(), cfg.FrontendURL),
	}, nil
}

func openStore(cfg *config.Config) (reportStore, error) {
	if cfg.StoreBackend == config.BackendMongoDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Infof("Using MongoDB store %s/%s", cfg.MongoURI, cfg.MongoDatabase)
		return store, nil
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureReportsTable(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	log.Infof("Using %s store", cfg.StoreName())
	return db, nil
}

// Start starts the realtime hub
func (s *Service) Start() error {
	log.Info("Starting incident board service...")

	go s.hub.Run()

	log.Info("Incident board service started successfully")
	return nil
}

// Stop closes every realtime session.
// The store stays open so in-flight requests can finish; call Close once the HTTP server has drained.
func (s *Service) Stop() error {
	log.Info("Stopping incident board service...")
	s.hub.Stop()
	return nil
}

// Close releases the broker and store connections
func (s *Service) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Warnf("Error closing RabbitMQ publisher: %v", err)
		}
	}

	if err := s.store.Close(); err != nil {
		log.Errorf("Error closing store: %v", err)
		return err
	}

	log.Info("Incident board service stopped")
	return nil
}

// GetHandlers returns the HTTP handlers
func (s *Service) GetHandlers() *handlers.Handlers {
	return s.handlers
}

// GetStats returns the number of connected sessions and broadcasts sent
func (s *Service) GetStats() (int, int) {
	return s.hub.GetStats()
}
