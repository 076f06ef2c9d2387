package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/nhle/ticket-desk/internal/model"
)

// envelope is the wire frame delivered on every channel.
type envelope struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// deletionPayload carries the id of a deleted entity.
type deletionPayload struct {
	ID string `json:"id"`
}

// parseEvent validates a raw frame and converts it into the closed set
// of event variants. Loosely-shaped payloads are rejected here, at the
// subscription boundary, so the stores only ever see well-formed events.
func parseEvent(raw []byte) (model.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.Event{}, fmt.Errorf("decoding frame: %w", err)
	}
	if env.Event == "" {
		return model.Event{}, fmt.Errorf("frame has no event type")
	}

	ev := model.Event{
		ID:      env.ID,
		Type:    model.EventType(env.Event),
		Channel: env.Channel,
	}

	switch ev.Type {
	case model.EventTicketCreated, model.EventTicketUpdated:
		var t model.Ticket
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if t.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no ticket id", env.Event)
		}
		ev.Ticket = &t

	case model.EventTicketDeleted:
		var p deletionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if p.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no ticket id", env.Event)
		}
		ev.TicketID = p.ID

	case model.EventCommentAdded:
		var c model.Comment
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if c.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no comment id", env.Event)
		}
		ev.Comment = &c

	case model.EventCommentDeleted:
		var p deletionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if p.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no comment id", env.Event)
		}
		ev.CommentID = p.ID

	case model.EventAttachmentAdded:
		var a model.Attachment
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if a.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no attachment id", env.Event)
		}
		ev.Attachment = &a

	case model.EventAttachmentDeleted:
		var p deletionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if p.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no attachment id", env.Event)
		}
		ev.AttachmentID = p.ID

	case model.EventNotificationCreated:
		var n model.Notification
		if err := json.Unmarshal(env.Data, &n); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Event, err)
		}
		if n.ID == "" {
			return model.Event{}, fmt.Errorf("%s payload has no notification id", env.Event)
		}
		ev.Notification = &n

	default:
		return model.Event{}, fmt.Errorf("unknown event type %q", env.Event)
	}

	return ev, nil
}
