package racing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// PriceUpdate is an odds change pushed by the racing data stream
type PriceUpdate struct {
	RaceID       string  `json:"raceId"`
	RunnerNumber int     `json:"runnerNumber"`
	RunnerName   string  `json:"runnerName"`
	WinOdds      float64 `json:"winOdds"`
	Timestamp    int64   `json:"timestamp"`
}

// streamEnvelope is the wire frame sent by the stream endpoint
type streamEnvelope struct {
	Op      string        `json:"op"`
	Status  int           `json:"status,omitempty"`
	Updates []PriceUpdate `json:"updates,omitempty"`
	Races   []string      `json:"races,omitempty"`
}

// UpdateHandler is called for each price update received from the stream
type UpdateHandler func(update PriceUpdate)

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// PriceStream handles the WebSocket connection to the racing price feed
type PriceStream struct {
	conn            *websocket.Conn
	streamURL       string
	apiKey          string
	mu              sync.RWMutex
	isConnected     bool
	closed          bool
	done            chan struct{}
	handlers        []UpdateHandler
	subscribed      []string
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *logrus.Logger
}

// NewPriceStream creates a new price stream client
func NewPriceStream(streamURL, apiKey string, logger *logrus.Logger) *PriceStream {
	return &PriceStream{
		streamURL:       streamURL,
		apiKey:          apiKey,
		done:            make(chan struct{}),
		handlers:        make([]UpdateHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// AddHandler registers a handler for price updates
func (s *PriceStream) AddHandler(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect establishes the stream connection and starts the read loop
func (s *PriceStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("stream closed")
	}
	if s.isConnected {
		s.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	s.mu.Unlock()

	if err := s.dial(ctx); err != nil {
		return err
	}

	go s.readLoop(ctx)
	return nil
}

// Subscribe requests price updates for the given races
func (s *PriceStream) Subscribe(raceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isConnected {
		return fmt.Errorf("not connected")
	}

	msg := streamEnvelope{Op: "subscribe", Races: raceIDs}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	s.subscribed = raceIDs
	return nil
}

// Close stops the read loop and shuts down the stream connection
func (s *PriceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.isConnected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *PriceStream) dial(ctx context.Context) error {
	header := make(map[string][]string)
	header["Authorization"] = []string{"Bearer " + s.apiKey}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.streamURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to price stream: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return fmt.Errorf("stream closed")
	}
	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()
	s.mu.Unlock()

	s.logger.WithField("url", s.streamURL).Info("Price stream connected")
	return nil
}

// readLoop reads stream frames until the context is cancelled,
// reconnecting with exponential backoff on failure.
func (s *PriceStream) readLoop(ctx context.Context) {
	retries := 0
	backoff := s.reconnectConfig.InitialBackoff

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()

			// Close wins over reconnection
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			default:
			}

			if retries >= s.reconnectConfig.MaxRetries {
				s.logger.WithError(err).Error("Price stream closed; retries exhausted")
				return
			}

			retries++
			s.logger.WithError(err).Warnf("Price stream read failed, reconnecting in %s", backoff)
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
			if backoff > s.reconnectConfig.MaxBackoff {
				backoff = s.reconnectConfig.MaxBackoff
			}

			if dialErr := s.dial(ctx); dialErr != nil {
				continue
			}
			s.mu.RLock()
			subscribed := s.subscribed
			s.mu.RUnlock()
			if len(subscribed) > 0 {
				s.Subscribe(subscribed)
			}
			continue
		}

		retries = 0
		backoff = s.reconnectConfig.InitialBackoff
		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		s.dispatch(data)
	}
}

func (s *PriceStream) dispatch(data []byte) {
	var envelope streamEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.WithError(err).Warn("Discarding malformed stream frame")
		return
	}

	if envelope.Op != "update" {
		return
	}

	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, update := range envelope.Updates {
		for _, handler := range handlers {
			handler(update)
		}
	}
}
