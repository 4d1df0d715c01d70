package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// PubSubNotifier publishes a session summary message to a Pub/Sub topic.
type PubSubNotifier struct {
	topic *pubsub.Topic
}

// NewPubSub creates a PubSubNotifier for the provided topic.
func NewPubSub(topic *pubsub.Topic) *PubSubNotifier {
	return &PubSubNotifier{topic: topic}
}

// sessionMessage is the published payload shape.
type sessionMessage struct {
	SessionID          string            `json:"session_id"`
	Status             string            `json:"status"`
	OpportunitiesFound int               `json:"opportunities_found"`
	HighUrgency        int               `json:"high_urgency"`
	TopOpportunities   []rfp.Opportunity `json:"top_opportunities"`
	Timestamp          string            `json:"timestamp"`
}

// Notify publishes the session summary and blocks until the server acks it.
func (n *PubSubNotifier) Notify(ctx context.Context, opportunities []rfp.Opportunity, session rfp.ScrapeSession) error {
	if n.topic == nil {
		return fmt.Errorf("pubsub topic is not configured")
	}

	high := 0
	for _, opp := range opportunities {
		if opp.Urgency == rfp.UrgencyHigh {
			high++
		}
	}
	top := opportunities
	if len(top) > 10 {
		top = top[:10]
	}

	data, err := json.Marshal(sessionMessage{
		SessionID:          session.ID,
		Status:             string(session.Status),
		OpportunitiesFound: len(opportunities),
		HighUrgency:        high,
		TopOpportunities:   top,
		Timestamp:          session.EndedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal session message: %w", err)
	}

	result := n.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"session_id": session.ID},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish session message: %w", err)
	}
	return nil
}
