package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/audio"
	"github.com/voicearena/server/internal/choreo"
	"github.com/voicearena/server/internal/metrics"
	"github.com/voicearena/server/internal/narrator"
	"github.com/voicearena/server/internal/pipeline"
	"github.com/voicearena/server/internal/speakers"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Config carries the per-connection session parameters.
type Config struct {
	// SampleRate of incoming PCM audio in Hz.
	SampleRate int

	// WindowSeconds is the recognition window consumed from the listening
	// buffer.
	WindowSeconds float64

	// EnrollmentMinSeconds is the least audio a complete_enrollment accepts.
	EnrollmentMinSeconds float64

	// PlayerAssignments maps lowercase speaker names to player slots. When
	// non-empty it doubles as the identification allow-list.
	PlayerAssignments map[string]string
}

// Hub maintains the set of active clients and holds the shared recognition
// machinery. The worker pool inside the recognizer and the profile store are
// the only state clients share; everything else is per connection.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	recognizer *pipeline.Recognizer
	processor  *choreo.Processor
	enrollment *speakers.Enrollment
	profiles   repositories.SpeakerProfileStore
	narrator   *narrator.Narrator

	config    Config
	allowList []string

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. narr may be nil when no synthesis
// backend is configured.
func NewHub(
	recognizer *pipeline.Recognizer,
	processor *choreo.Processor,
	enrollment *speakers.Enrollment,
	profiles repositories.SpeakerProfileStore,
	narr *narrator.Narrator,
	config Config,
	logger *zap.Logger,
) *Hub {
	allowList := make([]string, 0, len(config.PlayerAssignments))
	for name := range config.PlayerAssignments {
		allowList = append(allowList, name)
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		recognizer: recognizer,
		processor:  processor,
		enrollment: enrollment,
		profiles:   profiles,
		narrator:   narr,
		config:     config,
		allowList:  allowList,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			metrics.ActiveConnections.Inc()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.ActiveConnections.Dec()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

// playerFor resolves the player slot for a matched speaker name.
func (h *Hub) playerFor(speaker string) string {
	return h.config.PlayerAssignments[strings.ToLower(speaker)]
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub. All
// session state below mutex is owned by the connection: the read goroutine
// and the dance expiry timer are the only writers.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Connection identifier, for logs only.
	id string

	logger *zap.Logger

	mutex sync.Mutex

	listening bool
	listenBuf *audio.Buffer

	// Enrollment capture; nil unless an enrollment is in progress. Filled
	// from the same chunks as the listening buffer so a client can enroll
	// while commands keep flowing.
	enrollBuf  *audio.Buffer
	enrollName string

	tracker *speakers.Tracker

	dance *choreo.Session
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		id:        uuid.NewString(),
		logger:    logger,
		listenBuf: audio.NewBuffer(hub.config.SampleRate),
		tracker:   speakers.NewTracker(),
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.cleanup()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processControl(message)
		case websocket.BinaryMessage:
			c.processAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit serializes an event and queues it for the write pump. A client that
// cannot drain its send channel loses events rather than blocking the
// pipeline.
func (c *Client) emit(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Dropping event, send buffer full", zap.String("clientID", c.id))
	}
}

// cleanup tears down per-connection state on disconnect.
func (c *Client) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.dance != nil {
		c.dance.Cancel()
		c.dance = nil
	}
	c.listening = false
	c.enrollBuf = nil
}

// processControl dispatches a JSON control message.
func (c *Client) processControl(message []byte) {
	msg, err := ParseControl(message)
	if err != nil {
		c.logger.Warn("Rejected control message", zap.Error(err))
		c.emit(CreateErrorEvent(err.Error()))
		return
	}

	switch msg.Type {
	case MessageTypeStartEnrollment:
		c.handleStartEnrollment(msg.Name)
	case MessageTypeCompleteEnrollment:
		c.handleCompleteEnrollment(msg.Name)
	case MessageTypeCancelEnrollment:
		c.handleCancelEnrollment()
	case MessageTypeListSpeakers:
		c.handleListSpeakers()
	case MessageTypeRemoveSpeaker:
		c.handleRemoveSpeaker(msg.Name)
	case MessageTypeStartListening:
		c.handleStartListening()
	case MessageTypeStopListening:
		c.handleStopListening()
	case MessageTypeStartDance:
		c.handleStartDance()
	case MessageTypeCancelDance:
		c.handleCancelDance()
	case MessageTypeFinishDance:
		c.handleFinishDance()
	case MessageTypePing:
		c.emit(CreateSimpleEvent(MessageTypePong))
	default:
		c.logger.Warn("Unknown message type", zap.String("type", string(msg.Type)))
		c.emit(CreateErrorEvent(fmt.Sprintf("unsupported message type: %s", msg.Type)))
	}
}

// processAudioChunk routes a binary PCM chunk into every active capture, then
// drains full recognition windows. Windows are consumed and processed one at
// a time on this goroutine so results always come out in arrival order.
func (c *Client) processAudioChunk(data []byte) {
	c.mutex.Lock()
	if dance := c.dance; dance != nil {
		elapsed, remaining, progress := dance.AddChunk(data)
		if progress {
			c.mutex.Unlock()
			c.emit(&DanceProgressEvent{
				Type:      MessageTypeDanceProgress,
				Elapsed:   elapsed,
				Remaining: remaining,
			})
			c.mutex.Lock()
		}
	}
	if c.enrollBuf != nil {
		c.enrollBuf.AddChunk(data)
	}
	if c.listening {
		c.listenBuf.AddChunk(data)
	}
	c.mutex.Unlock()

	for {
		c.mutex.Lock()
		if !c.listening {
			c.mutex.Unlock()
			return
		}
		window, ok := c.listenBuf.Consume(c.hub.config.WindowSeconds)
		c.mutex.Unlock()
		if !ok {
			return
		}
		c.recognizeWindow(window)
	}
}

// recognizeWindow runs the fan-out for one window and emits the merged
// result, if any.
func (c *Client) recognizeWindow(window []float32) {
	result := c.hub.recognizer.ProcessWindow(context.Background(), window, c.tracker, c.hub.allowList)
	if result == nil {
		return
	}

	c.emit(&CommandEvent{
		Type:              MessageTypeCommand,
		Player:            c.hub.playerFor(result.Speaker),
		RecognitionResult: *result,
	})

	if result.Command != nil && c.hub.narrator != nil {
		go c.narrate(result)
	}
}

// narrate asks the commentator for a one-liner about a recognized command.
// Entirely best-effort; the narrator applies its own cooldown.
func (c *Client) narrate(result *entities.RecognitionResult) {
	text, audioB64, ok := c.hub.narrator.Narrate(context.Background(), result)
	if !ok {
		return
	}
	c.emit(&NarrationEvent{
		Type:  MessageTypeNarration,
		Text:  text,
		Audio: audioB64,
	})
}

func (c *Client) handleStartEnrollment(name string) {
	c.mutex.Lock()
	c.enrollBuf = audio.NewBuffer(c.hub.config.SampleRate)
	c.enrollName = name
	c.mutex.Unlock()

	c.logger.Info("Enrollment started", zap.String("name", name))
	c.emit(&EnrollmentStartedEvent{Type: MessageTypeEnrollmentStarted, Name: name})
}

func (c *Client) handleCompleteEnrollment(name string) {
	c.mutex.Lock()
	buf := c.enrollBuf
	if name == "" {
		name = c.enrollName
	}
	c.mutex.Unlock()

	if buf == nil {
		c.emit(CreateErrorEvent("no enrollment in progress"))
		return
	}
	if name == "" {
		c.emit(CreateErrorEvent("complete_enrollment requires a name"))
		return
	}

	if buf.DurationSeconds() < c.hub.config.EnrollmentMinSeconds {
		// The capture keeps running so the client can record more audio
		// and retry completion.
		c.emit(&EnrollmentCompleteEvent{
			Type:    MessageTypeEnrollmentComplete,
			Success: false,
			Message: fmt.Sprintf("Need at least %.1f seconds of audio, got %.1f", c.hub.config.EnrollmentMinSeconds, buf.DurationSeconds()),
			Name:    name,
		})
		return
	}

	// Claim the capture only once the duration gate passes.
	c.mutex.Lock()
	if c.enrollBuf == buf {
		c.enrollBuf = nil
		c.enrollName = ""
	}
	c.mutex.Unlock()

	samples, _ := buf.Peek(buf.DurationSeconds())
	success, message := c.hub.enrollment.Enroll(context.Background(), name, samples, c.hub.config.SampleRate)
	c.emit(&EnrollmentCompleteEvent{
		Type:    MessageTypeEnrollmentComplete,
		Success: success,
		Message: message,
		Name:    name,
	})
}

func (c *Client) handleCancelEnrollment() {
	c.mutex.Lock()
	c.enrollBuf = nil
	c.enrollName = ""
	c.mutex.Unlock()

	c.emit(CreateSimpleEvent(MessageTypeEnrollmentCancelled))
}

func (c *Client) handleListSpeakers() {
	names, err := c.hub.profiles.ListNames(context.Background())
	if err != nil {
		c.logger.Error("Failed to list speakers", zap.Error(err))
		c.emit(CreateErrorEvent("failed to list speakers"))
		return
	}
	if names == nil {
		names = []string{}
	}
	c.emit(&SpeakersListEvent{Type: MessageTypeSpeakersList, Speakers: names})
}

func (c *Client) handleRemoveSpeaker(name string) {
	removed, err := c.hub.profiles.Remove(context.Background(), name)
	if err != nil {
		c.logger.Error("Failed to remove speaker", zap.String("name", name), zap.Error(err))
		removed = false
	}
	c.emit(&SpeakerRemovedEvent{Type: MessageTypeSpeakerRemoved, Name: name, Success: removed})
}

func (c *Client) handleStartListening() {
	c.mutex.Lock()
	c.listening = true
	c.listenBuf.Reset()
	c.tracker.Reset()
	c.mutex.Unlock()

	c.logger.Info("Listening started", zap.String("clientID", c.id))
	c.emit(CreateSimpleEvent(MessageTypeListeningStarted))
}

func (c *Client) handleStopListening() {
	c.mutex.Lock()
	c.listening = false
	c.listenBuf.Reset()
	c.mutex.Unlock()

	c.logger.Info("Listening stopped", zap.String("clientID", c.id))
	c.emit(CreateSimpleEvent(MessageTypeListeningStopped))
}

func (c *Client) handleStartDance() {
	c.mutex.Lock()
	if c.dance != nil && c.dance.Active() {
		c.mutex.Unlock()
		c.emit(CreateDanceErrorEvent("dance recording already in progress"))
		return
	}
	var session *choreo.Session
	session = choreo.NewSession(c.hub.config.SampleRate, func() {
		c.danceExpired(session)
	})
	c.dance = session
	c.mutex.Unlock()

	c.logger.Info("Dance recording started", zap.String("clientID", c.id))
	c.emit(&DanceStartedEvent{
		Type:     MessageTypeDanceStarted,
		Duration: choreo.CaptureDuration.Seconds(),
	})
}

// danceExpired runs on the capture timer goroutine when the full window
// elapses. An early finish or cancel already claimed the session makes this
// a no-op.
func (c *Client) danceExpired(session *choreo.Session) {
	samples, ok := session.Take()
	if !ok {
		return
	}
	c.logger.Info("Dance capture window elapsed", zap.String("clientID", c.id))
	c.processDance(samples)
	c.clearDance(session)
}

func (c *Client) handleCancelDance() {
	c.mutex.Lock()
	if c.dance != nil {
		c.dance.Cancel()
		c.dance = nil
	}
	c.mutex.Unlock()

	c.emit(CreateSimpleEvent(MessageTypeDanceCancelled))
}

func (c *Client) handleFinishDance() {
	c.mutex.Lock()
	session := c.dance
	c.mutex.Unlock()

	if session == nil || !session.Active() {
		c.emit(CreateDanceErrorEvent("no dance recording in progress"))
		return
	}

	elapsed := session.Elapsed()
	if elapsed < choreo.MinFinishElapsed {
		session.Cancel()
		c.clearDance(session)
		c.emit(CreateDanceErrorEvent(fmt.Sprintf(
			"need at least %.0f seconds of recording, got %.1f",
			choreo.MinFinishElapsed.Seconds(), elapsed.Seconds())))
		return
	}

	samples, ok := session.Take()
	if !ok {
		c.clearDance(session)
		c.emit(CreateDanceErrorEvent("no audio captured"))
		return
	}
	c.processDance(samples)
	c.clearDance(session)
}

// processDance runs the one-shot choreography pipeline on claimed audio and
// emits the outcome, with a status line ahead of each stage.
func (c *Client) processDance(samples []float32) {
	c.emit(&DanceStatusEvent{
		Type:    MessageTypeDanceStatus,
		Message: "Transcribing your dance...",
	})

	transcript, err := c.hub.processor.Transcribe(context.Background(), samples)
	if err != nil {
		c.logger.Warn("Dance transcription failed", zap.Error(err))
		c.emit(CreateDanceErrorEvent(err.Error()))
		return
	}

	c.emit(&DanceStatusEvent{
		Type:    MessageTypeDanceStatus,
		Message: "AI choreographing your dance...",
	})

	plan := c.hub.processor.Generate(context.Background(), transcript)

	c.emit(&DancePlanEvent{
		Type:       MessageTypeDancePlan,
		Plan:       plan,
		Transcript: transcript,
	})
}

// clearDance drops the session pointer if it still refers to the given
// capture, leaving a newer capture untouched.
func (c *Client) clearDance(session *choreo.Session) {
	c.mutex.Lock()
	if c.dance == session {
		c.dance = nil
	}
	c.mutex.Unlock()
}
