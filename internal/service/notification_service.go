package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/queueflow/queue-service/internal/config"
	"github.com/queueflow/queue-service/internal/events"
)

// NotificationService delivers customer-facing messages for queue events.
// The core only hands it {token, position, contact}; channel selection
// and delivery stay here.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to the events that notify customers.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.KindTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.KindTicketCalled, n.handleTicketCalled)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	if event.Ticket == nil {
		return nil
	}
	n.logger.Info("ticket created",
		zap.String("token", event.Ticket.TokenNumber),
		zap.Int("position", event.Ticket.Position))
	n.sendSMSStub(ctx, event)
	n.sendEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketCalled(ctx context.Context, event events.Event) error {
	if event.Ticket == nil {
		return nil
	}
	n.logger.Info("ticket called",
		zap.String("token", event.Ticket.TokenNumber))
	n.sendSMSStub(ctx, event)
	return nil
}

func (n *NotificationService) sendSMSStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.SMSFrom) == "" || event.Ticket.CustomerPhone == "" {
		return
	}
	n.logger.Debug("sendSMSStub",
		zap.String("from", n.cfg.SMSFrom),
		zap.String("token", event.Ticket.TokenNumber),
		zap.String("event_kind", string(event.Kind)))
}

func (n *NotificationService) sendEmailStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || event.Ticket.CustomerEmail == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("token", event.Ticket.TokenNumber),
		zap.String("event_kind", string(event.Kind)))
}
