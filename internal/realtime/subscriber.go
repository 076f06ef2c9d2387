// Package realtime maintains the websocket push channel to the helpdesk
// backend: one connection, per-scope subscriptions, and a bridge that
// surfaces parsed events to the Bubble Tea runtime as messages.
package realtime

import (
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/nhle/ticket-desk/internal/model"
)

// TeamChannel is the team-wide scope visible to staff.
const TeamChannel = "team"

// UserChannel returns the per-user scope name.
func UserChannel(userID string) string {
	return "user." + userID
}

// TicketChannel returns the per-ticket scope name.
func TicketChannel(ticketID string) string {
	return "ticket." + ticketID
}

// EventMsg is a tea.Msg carrying one parsed push event.
type EventMsg struct {
	Event model.Event
}

// ConnState describes the push channel's connection health.
type ConnState int

const (
	ConnConnecting ConnState = iota
	ConnOnline
	ConnOffline
)

// ConnStateMsg is a tea.Msg sent on connection state transitions. Push
// channel failures are non-fatal: REST remains the source of truth and
// views keep rendering their last state.
type ConnStateMsg struct {
	State ConnState
	Err   error
}

// command is an outbound subscribe/unsubscribe frame.
type command struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// dialTimeout bounds a single connection attempt.
const dialTimeout = 15 * time.Second

// maxBackoff caps the reconnect delay.
const maxBackoff = 30 * time.Second

// Subscriber owns the websocket connection and the set of active
// channel subscriptions. Views subscribe on mount and unsubscribe on
// unmount; the subscriber replays the active set after a reconnect so
// no view has to know about transport failures.
type Subscriber struct {
	url   string
	token string

	msgCh  chan tea.Msg
	sendCh chan command
	stopCh chan struct{}

	mu      sync.Mutex
	active  map[string]struct{}
	running bool
	dropped int
}

// New creates a subscriber for the given websocket URL, authenticating
// with the session bearer token.
func New(url, token string) *Subscriber {
	return &Subscriber{
		url:    url,
		token:  token,
		msgCh:  make(chan tea.Msg, 64),
		sendCh: make(chan command, 64),
		stopCh: make(chan struct{}),
		active: make(map[string]struct{}),
	}
}

// Start launches the connection loop and returns a command that waits
// for the first message. Calling Start twice is a no-op.
func (s *Subscriber) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.run()

	return s.waitForMsg()
}

// Stop tears down the connection loop. Safe to call more than once.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Subscribe joins a channel scope. The subscription survives reconnects
// until the matching Unsubscribe.
func (s *Subscriber) Subscribe(channel string) {
	s.mu.Lock()
	if _, ok := s.active[channel]; ok {
		s.mu.Unlock()
		return
	}
	s.active[channel] = struct{}{}
	s.mu.Unlock()

	s.enqueue(command{Action: "subscribe", Channel: channel})
}

// Unsubscribe leaves a channel scope.
func (s *Subscriber) Unsubscribe(channel string) {
	s.mu.Lock()
	if _, ok := s.active[channel]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.active, channel)
	s.mu.Unlock()

	s.enqueue(command{Action: "unsubscribe", Channel: channel})
}

// ActiveChannels returns the currently subscribed scopes.
func (s *Subscriber) ActiveChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]string, 0, len(s.active))
	for ch := range s.active {
		channels = append(channels, ch)
	}
	return channels
}

// Dropped returns how many malformed frames have been discarded.
func (s *Subscriber) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// WaitForNext returns a tea.Cmd that waits for the next push message.
// Call it after processing an EventMsg or ConnStateMsg to keep
// listening, mirroring the result-channel bridge used for sync results.
func (s *Subscriber) WaitForNext() tea.Cmd {
	return s.waitForMsg()
}

// waitForMsg blocks on the message channel and hands the next message
// to the Bubble Tea runtime.
func (s *Subscriber) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-s.msgCh:
			if !ok {
				return nil
			}
			return msg
		case <-s.stopCh:
			return nil
		}
	}
}

// run is the connection loop: dial, replay subscriptions, pump frames,
// and reconnect with capped exponential backoff until stopped.
func (s *Subscriber) run() {
	backoff := time.Second

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.deliver(ConnStateMsg{State: ConnConnecting})

		conn, err := s.dial()
		if err != nil {
			s.deliver(ConnStateMsg{State: ConnOffline, Err: err})

			select {
			case <-s.stopCh:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		s.deliver(ConnStateMsg{State: ConnOnline})
		s.resubscribe()

		readErr := s.pump(conn)
		conn.Close()

		select {
		case <-s.stopCh:
			return
		default:
			s.deliver(ConnStateMsg{State: ConnOffline, Err: readErr})
		}
	}
}

// dial opens the websocket connection with bearer authentication.
func (s *Subscriber) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)

	conn, _, err := dialer.Dial(s.url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// resubscribe replays the active subscription set on a fresh connection.
func (s *Subscriber) resubscribe() {
	s.mu.Lock()
	channels := make([]string, 0, len(s.active))
	for ch := range s.active {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		s.enqueue(command{Action: "subscribe", Channel: ch})
	}
}

// pump runs the read and write sides of one connection. It returns the
// read error that ended the connection.
func (s *Subscriber) pump(conn *websocket.Conn) error {
	writeDone := make(chan struct{})
	go s.writePump(conn, writeDone)
	defer close(writeDone)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, err := parseEvent(raw)
		if err != nil {
			// Malformed frames never reach the stores.
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			continue
		}

		s.deliver(EventMsg{Event: ev})
	}
}

// writePump sends queued subscribe/unsubscribe frames until the
// connection ends.
func (s *Subscriber) writePump(conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-s.stopCh:
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case cmd := <-s.sendCh:
			if err := conn.WriteJSON(cmd); err != nil {
				return
			}
		}
	}
}

// enqueue queues an outbound frame without blocking; a full queue drops
// the frame, and the reconnect replay restores consistency.
func (s *Subscriber) enqueue(cmd command) {
	select {
	case s.sendCh <- cmd:
	default:
	}
}

// deliver sends a message to the UI without blocking the read pump;
// messages are dropped if the UI cannot keep up.
func (s *Subscriber) deliver(msg tea.Msg) {
	select {
	case s.msgCh <- msg:
	default:
	}
}
