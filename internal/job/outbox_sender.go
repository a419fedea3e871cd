package job

import (
	"context"
	"log/slog"
	"time"

	"fundsledger/internal/model"
	"fundsledger/internal/repository"
)

// Publisher delivers one message to the broker.
type Publisher interface {
	SendMessage(topic, key, value string) error
}

// OutboxSender relays pending balance events to the broker in insertion order.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	logger     *slog.Logger
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxSender(outboxRepo *repository.OutboxRepository, publisher Publisher, logger *slog.Logger, batchSize, maxRetries int) *OutboxSender {
	return &OutboxSender{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger.With(slog.String("job", "outbox_sender")),
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.logger.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("outbox sender stopped by context")
			return
		case <-s.stopCh:
			s.logger.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.ProcessPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// ProcessPendingMessages sends one batch and returns how many were delivered.
// A failed event stops the batch so later events of the same account are not
// published ahead of it.
func (s *OutboxSender) ProcessPendingMessages(ctx context.Context) int {
	messages, err := s.outboxRepo.Pending(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("query pending messages failed", slog.String("error", err.Error()))
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if !s.sendMessage(ctx, msg) {
			break
		}
		sent++
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.SendMessage(msg.Topic, msg.SubjectID, msg.Payload)
	if err == nil {
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			s.logger.Error("mark event sent failed", slog.String("event_no", msg.EventNo), slog.String("error", err.Error()))
		}
		return true
	}

	s.logger.Warn("publish balance event failed",
		slog.String("event_no", msg.EventNo),
		slog.String("subject_id", msg.SubjectID),
		slog.Int("attempt", msg.Attempts+1),
		slog.String("error", err.Error()))

	parked, recordErr := s.outboxRepo.RecordFailure(ctx, msg, err, s.maxRetries)
	if recordErr != nil {
		s.logger.Error("record delivery failure failed", slog.String("event_no", msg.EventNo), slog.String("error", recordErr.Error()))
		return false
	}
	if parked {
		s.logger.Error("balance event exceeded max attempts, parked as FAILED",
			slog.String("event_no", msg.EventNo),
			slog.String("subject_id", msg.SubjectID))
	}
	return false
}
