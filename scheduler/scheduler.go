package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lcabral/docqa/services/rag_service"
)

// Scheduler periodically asks the index manager to rebuild the vector index
// when the corpus has grown or shrunk enough to warrant new ivfflat list
// counts.
type Scheduler struct {
	checkInterval time.Duration
	indexManager  *rag_service.IndexManager
	logger        *slog.Logger
	stop          chan struct{}
}

func New(checkInterval time.Duration, indexManager *rag_service.IndexManager, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checkInterval: checkInterval,
		indexManager:  indexManager,
		logger:        logger,
		stop:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting index maintenance scheduler",
		slog.Duration("check_interval", s.checkInterval))
	for {
		select {
		case <-s.stop:
			return
		case <-time.After(s.checkInterval):
			if err := s.indexManager.ReindexIfNeeded(context.Background()); err != nil {
				s.logger.Error("Index maintenance failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
}
