package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/domain"
)

// Envelope names the shape a list response arrived in.
type Envelope string

const (
	EnvelopeBare    Envelope = "bare"
	EnvelopeItems   Envelope = "items"
	EnvelopeDynamo  Envelope = "Items"
	EnvelopeUnknown Envelope = "unknown"
)

// unwrapList finds the ticket array inside a list response. The backend has
// answered with a bare array, {"items": [...]} and {"Items": [...]} over time.
func unwrapList(data []byte) (json.RawMessage, Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, EnvelopeUnknown, nil
	}

	switch trimmed[0] {
	case '[':
		return trimmed, EnvelopeBare, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, EnvelopeUnknown, fmt.Errorf("decode list envelope: %w", err)
		}
		if raw, ok := obj["items"]; ok && isArray(raw) {
			return raw, EnvelopeItems, nil
		}
		if raw, ok := obj["Items"]; ok && isArray(raw) {
			return raw, EnvelopeDynamo, nil
		}
		return nil, EnvelopeUnknown, nil
	}

	if !json.Valid(trimmed) {
		return nil, EnvelopeUnknown, fmt.Errorf("decode list envelope: invalid JSON")
	}
	return nil, EnvelopeUnknown, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeTicketList turns a list response into normalized tickets. Unknown shapes
// produce an empty list and a warning.
func decodeTicketList(data []byte, logger *zap.Logger) ([]domain.Ticket, Envelope, error) {
	raw, envelope, err := unwrapList(data)
	if err != nil {
		return nil, envelope, err
	}
	if envelope == EnvelopeUnknown {
		logger.Warn("unknown ticket list format", zap.ByteString("body", preview(data, 256)))
		return []domain.Ticket{}, envelope, nil
	}

	var items []domain.Ticket
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, envelope, fmt.Errorf("decode tickets: %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(items))
	for _, item := range items {
		normalized, ok := item.Normalize()
		if !ok {
			logger.Warn("dropping ticket with unknown status or priority",
				zap.String("ticket_id", item.ID),
				zap.String("status", string(item.Status)),
				zap.String("priority", string(item.Priority)))
			continue
		}
		tickets = append(tickets, normalized)
	}
	return tickets, envelope, nil
}

func preview(data []byte, max int) []byte {
	if len(data) <= max {
		return data
	}
	return data[:max]
}
