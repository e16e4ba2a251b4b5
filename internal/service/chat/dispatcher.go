package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nearby/internal/domain/chat"
	"nearby/internal/domain/group"
	"nearby/internal/domain/profile"
	"nearby/internal/realtime"
)

// EventPublisher publishes message events for out-of-process consumers
// (push notification workers and the like). *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// DispatcherConfig contains configuration for the message dispatcher.
type DispatcherConfig struct {
	MaxMessageLength int
	PersistTimeout   time.Duration
	EventsTopic      string
}

// Dispatcher validates and persists outbound messages, then fans them out
// to the recipients' live connections. Persistence success is the
// operation's success criterion; delivery is best-effort and never rolls
// the message back.
//
// Persist and fan-out are not transactional: a crash between the two
// leaves already-open connections without the message until their next
// history fetch. Accepted gap, see DESIGN.md.
type Dispatcher struct {
	store    chat.Store
	groups   group.Store
	profiles profile.Store
	registry *realtime.Registry
	events   EventPublisher
	config   DispatcherConfig
	log      zerolog.Logger
}

// NewDispatcher creates a new message dispatcher. events may be nil, in
// which case no bus publication happens.
func NewDispatcher(
	store chat.Store,
	groups group.Store,
	profiles profile.Store,
	registry *realtime.Registry,
	events EventPublisher,
	config DispatcherConfig,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:    store,
		groups:   groups,
		profiles: profiles,
		registry: registry,
		events:   events,
		config:   config,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Send validates, persists and delivers one message. The message id is
// assigned here, exactly once, before persistence; receiving clients rely
// on it for de-duplication.
func (d *Dispatcher) Send(ctx context.Context, in chat.SendInput) (*chat.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, chat.ErrEmptyText
	}
	if d.config.MaxMessageLength > 0 && len(text) > d.config.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", chat.ErrValidation, d.config.MaxMessageLength)
	}
	if in.FromUserID == "" {
		return nil, fmt.Errorf("%w: missing sender", chat.ErrValidation)
	}
	if (in.ToUserID == "") == (in.GroupID == "") {
		return nil, chat.ErrBadTarget
	}

	if in.GroupID != "" {
		exists, err := d.groups.Exists(ctx, in.GroupID)
		if err != nil {
			return nil, fmt.Errorf("check group: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("group %s: %w", in.GroupID, chat.ErrNotFound)
		}
	}

	msg := chat.Message{
		ID:         uuid.NewString(),
		FromUserID: in.FromUserID,
		ToUserID:   in.ToUserID,
		GroupID:    in.GroupID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}

	// Best-effort author enrichment so receivers can render without a
	// second profile fetch.
	if sender, err := d.profiles.Get(ctx, in.FromUserID); err == nil {
		msg.AuthorName = sender.Name
		msg.AuthorPhoto = sender.PhotoURL
	} else {
		d.log.Debug().Err(err).Str("user_id", in.FromUserID).Msg("author lookup failed")
	}

	persistCtx, cancel := context.WithTimeout(ctx, d.config.PersistTimeout)
	defer cancel()

	if err := d.store.CreateMessage(persistCtx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	d.fanOut(ctx, msg)
	d.publishEvent(msg)

	return &msg, nil
}

// fanOut delivers a persisted message to every relevant live connection.
// Fire-and-forget per connection: a failed enqueue drops that connection
// and affects nothing else.
func (d *Dispatcher) fanOut(ctx context.Context, msg chat.Message) {
	payload, err := json.Marshal(realtime.Frame{Type: realtime.FrameTypeMessage, Message: &msg})
	if err != nil {
		d.log.Error().Err(err).Str("message_id", msg.ID).Msg("marshal fan-out frame")
		return
	}

	var targets []string
	if msg.IsGroup() {
		members, err := d.groups.MemberIDs(ctx, msg.GroupID)
		if err != nil {
			d.log.Warn().Err(err).Str("group_id", msg.GroupID).Msg("fan-out member lookup failed")
			return
		}
		for _, id := range members {
			if id == msg.FromUserID {
				// Sender already has the message via the send response
				continue
			}
			targets = append(targets, id)
		}
	} else {
		targets = []string{msg.ToUserID}
	}

	for _, userID := range targets {
		for _, h := range d.registry.ConnectionsFor(userID) {
			if !h.Enqueue(payload) {
				// Stalled consumer; drop the connection rather than
				// block the dispatch path
				d.log.Warn().Str("user_id", userID).Str("message_id", msg.ID).Msg("send buffer full, dropping connection")
				h.Close()
			}
		}
	}
}

// publishEvent mirrors the message onto the event bus. Best-effort.
func (d *Dispatcher) publishEvent(msg chat.Message) {
	if d.events == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	subject := fmt.Sprintf("%s.dm.%s", d.config.EventsTopic, msg.ToUserID)
	if msg.IsGroup() {
		subject = fmt.Sprintf("%s.group.%s", d.config.EventsTopic, msg.GroupID)
	}

	if err := d.events.Publish(subject, data); err != nil {
		d.log.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}

// MarkRead sets the read watermark for the one-to-one conversation with
// the partner. Group chats carry no unread tracking.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, partnerID string) error {
	if userID == "" || partnerID == "" {
		return fmt.Errorf("%w: missing user or partner id", chat.ErrValidation)
	}
	return d.store.MarkRead(ctx, userID, partnerID, time.Now().UTC())
}

// History returns the one-to-one history between two users.
func (d *Dispatcher) History(ctx context.Context, userA, userB string, limit int) ([]chat.Message, error) {
	if userA == "" || userB == "" {
		return nil, fmt.Errorf("%w: missing user id", chat.ErrValidation)
	}
	return d.store.History(ctx, userA, userB, limit)
}

// GroupHistory returns a group's history.
func (d *Dispatcher) GroupHistory(ctx context.Context, groupID string, limit int) ([]chat.Message, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: missing group id", chat.ErrValidation)
	}

	exists, err := d.groups.Exists(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("group %s: %w", groupID, chat.ErrNotFound)
	}

	return d.store.GroupHistory(ctx, groupID, limit)
}

// Inbox returns the user's conversation summaries.
func (d *Dispatcher) Inbox(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", chat.ErrValidation)
	}
	return d.store.Inbox(ctx, userID)
}

// UnreadCount returns the user's total unread one-to-one message count.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: missing user id", chat.ErrValidation)
	}
	return d.store.UnreadCount(ctx, userID)
}
