package market

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	ReconnBaseDelay = 1 * time.Second
	ReconnMaxDelay  = 30 * time.Second
	PingPeriod      = 15 * time.Second // Keep-alive interval
)

// Credentials authenticates the feed connection. Empty credentials skip the
// auth handshake for venues with public book channels.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
}

// Feed maintains a websocket subscription to the conditional-market venue,
// keeps a book per subscribed market and folds every mid-price move into the
// TWAP tracker.
type Feed struct {
	url         string
	creds       Credentials
	conn        *websocket.Conn
	mu          sync.RWMutex
	books       map[string]*Book
	subs        []model.Address
	tracker     *Tracker
	ctx         context.Context
	cancel      context.CancelFunc
	isConnected bool
}

func NewFeed(url string, creds Credentials, tracker *Tracker) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		url:     url,
		creds:   creds,
		books:   make(map[string]*Book),
		subs:    make([]model.Address, 0),
		tracker: tracker,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the connection loop in a background goroutine
func (f *Feed) Start() {
	go f.runLoop()
}

// Stop closes the feed
func (f *Feed) Stop() {
	f.cancel()
	if f.conn != nil {
		f.conn.Close()
	}
}

// Subscribe adds markets to the subscription list and updates the connection
// if active
func (f *Feed) Subscribe(markets []model.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()

	updates := false
	for _, m := range markets {
		found := false
		for _, existing := range f.subs {
			if existing == m {
				found = true
				break
			}
		}
		if !found {
			f.subs = append(f.subs, m)
			f.books[m.Hex()] = NewBook(m.Hex())
			updates = true
		}
	}

	if updates && f.isConnected {
		if err := f.sendSubscribe(markets); err != nil {
			logger.Error("Failed to subscribe", "error", err)
		}
	}
}

func (f *Feed) GetBook(market model.Address) *Book {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.books[market.Hex()]
}

func (f *Feed) runLoop() {
	delay := ReconnBaseDelay

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		if err := f.connect(); err != nil {
			logger.Error("Feed connection failed", "error", err, "retry_in", delay)
			time.Sleep(delay)
			delay *= 2
			if delay > ReconnMaxDelay {
				delay = ReconnMaxDelay
			}
			continue
		}

		// Connected successfully
		delay = ReconnBaseDelay
		f.mu.Lock()
		f.isConnected = true
		// Resubscribe to all
		var subErr error
		if len(f.subs) > 0 {
			subErr = f.sendSubscribe(f.subs)
		}
		f.mu.Unlock()
		if subErr != nil {
			logger.Error("Failed to resubscribe", "error", subErr)
			f.conn.Close()
			continue
		}

		f.readLoop()

		f.mu.Lock()
		f.isConnected = false
		f.mu.Unlock()
	}
}

func (f *Feed) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}
	f.conn = conn

	if f.creds.Key != "" {
		if err := f.authenticate(); err != nil {
			conn.Close()
			return err
		}
	}

	// Zombie check: if no data or pong arrives within PingPeriod plus a
	// buffer, the connection is assumed dead.
	readTimeout := PingPeriod + 10*time.Second
	f.conn.SetReadDeadline(time.Now().Add(readTimeout))

	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	// Start Pinger
	go func() {
		ticker := time.NewTicker(PingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-f.ctx.Done():
				return
			case <-ticker.C:
				f.mu.Lock()
				if !f.isConnected || f.conn == nil {
					f.mu.Unlock()
					return
				}
				err := f.conn.WriteMessage(websocket.PingMessage, []byte{})
				f.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	return nil
}

func (f *Feed) authenticate() error {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	signStr := ts + "GET" + "/ws/market"

	mac := hmac.New(sha256.New, []byte(f.creds.Secret))
	mac.Write([]byte(signStr))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authMsg := map[string]string{
		"type":       "auth",
		"key":        f.creds.Key,
		"signature":  sig,
		"timestamp":  ts,
		"passphrase": f.creds.Passphrase,
	}

	return f.conn.WriteJSON(authMsg)
}

type WSMessage struct {
	EventType string          `json:"event_type"` // "book" or "price_change"
	Market    string          `json:"market"`
	Bids      []PriceLevelRaw `json:"bids"`
	Asks      []PriceLevelRaw `json:"asks"`
	Hash      string          `json:"hash"` // If present, it's a snapshot
}

type PriceLevelRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

func (f *Feed) readLoop() {
	defer f.conn.Close()

	readTimeout := PingPeriod + 10*time.Second

	for {
		f.conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := f.conn.ReadMessage()
		if err != nil {
			logger.Error("Feed read error", "error", err)
			return
		}

		var msg []WSMessage
		// The venue sends arrays of messages
		if err := json.Unmarshal(message, &msg); err != nil {
			// Try single object just in case
			var single WSMessage
			if err2 := json.Unmarshal(message, &single); err2 == nil {
				msg = []WSMessage{single}
			} else {
				// Keep alive or control message?
				continue
			}
		}

		for _, m := range msg {
			if m.EventType == "book" && m.Market != "" {
				f.processBookMessage(m)
			}
		}
	}
}

func (f *Feed) processBookMessage(msg WSMessage) {
	f.mu.RLock()
	book, exists := f.books[msg.Market]
	f.mu.RUnlock()

	if !exists {
		return
	}

	for _, b := range msg.Bids {
		book.Update("BUY", b.Price, b.Size)
	}
	for _, a := range msg.Asks {
		book.Update("SELL", a.Price, a.Size)
	}

	if mid, ok := book.Mid(); ok && f.tracker != nil {
		if addr, err := model.AddressFromHex(msg.Market); err == nil {
			f.tracker.Observe(addr, mid)
		}
	}
}

// sendSubscribe writes the subscription frame. The caller must hold f.mu, so
// connection writes never interleave and subscribing from inside Subscribe
// does not re-enter the lock.
func (f *Feed) sendSubscribe(markets []model.Address) error {
	ids := make([]string, len(markets))
	for i, m := range markets {
		ids[i] = m.Hex()
	}
	msg := map[string]interface{}{
		"type":         "subscribe",
		"assets_ids":   ids,
		"channel_name": "book",
	}

	if f.conn == nil {
		return fmt.Errorf("no connection")
	}
	return f.conn.WriteJSON(msg)
}
