package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/config"
	"github.com/spec-kit/lead-crm/internal/events"
)

// NotificationService handles emitting notifications for domain events.
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

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLeadCreated, n.handleLeadCreated)
	n.dispatcher.Subscribe(events.EventLeadStatusChanged, n.handleLeadStatusChanged)
	n.dispatcher.Subscribe(events.EventLeadReassigned, n.handleLeadReassigned)
	n.dispatcher.Subscribe(events.EventLeadCommentAdded, n.handleLeadCommentAdded)
	n.dispatcher.Subscribe(events.EventFollowUpDue, n.handleFollowUpDue)
}

func (n *NotificationService) handleLeadCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadCreated", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLeadStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadStatusChanged", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLeadReassigned(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadReassigned", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLeadCommentAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadCommentAdded", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFollowUpDue(ctx context.Context, event events.Event) error {
	n.logger.Info("FollowUpDue", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("lead_id", event.LeadID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("lead_id", event.LeadID),
		zap.String("event_type", string(event.Type)))
}
