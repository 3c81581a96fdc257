package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/libriscan/libriscan/internal/bibdata"
	"github.com/libriscan/libriscan/internal/camera"
	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
	"github.com/libriscan/libriscan/internal/session"
)

// ScanEvent is a server-to-client message on the scan socket.
type ScanEvent struct {
	Type        string               `json:"type"` // ready, scan, closed, error, diagnostics
	SessionID   string               `json:"session_id,omitempty"`
	ISBN        string               `json:"isbn,omitempty"`
	ISBN13      string               `json:"isbn13,omitempty"`
	Book        *bibdata.Book        `json:"book,omitempty"`
	Category    string               `json:"category,omitempty"`
	Message     string               `json:"message,omitempty"`
	Diagnostics *session.Diagnostics `json:"diagnostics,omitempty"`
}

// ScanCommand is a client-to-server text message. Camera frames travel as
// binary messages alongside these.
type ScanCommand struct {
	Type string `json:"type"` // close, diagnostics
}

// wsWriter serializes writes: session callbacks and command replies run on
// different goroutines.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(ev ScanEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(ev); err != nil {
		slog.Debug("scan socket write failed", "type", ev.Type, "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// scanWebSocketHandler runs one scan session per connection. The client
// streams camera frames as binary JPEG or PNG messages; the server answers
// with a scan event for the first accepted ISBN and then closes.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return s.corsOrigin == "*" || origin == "" || origin == s.corsOrigin
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	scanSessionsActive.Inc()
	defer scanSessionsActive.Dec()

	writer := &wsWriter{conn: conn}
	src := camera.NewPushSource(isSecureRequest(r))

	sess := session.New(src, s.arb, s.sessionCfg, session.Callbacks{
		OnScan: func(code string) {
			ev := ScanEvent{Type: "scan", ISBN: code}
			if thirteen, ok := isbn.ToISBN13(code); ok {
				ev.ISBN13 = thirteen
			}
			if s.lookup != nil {
				// Best-effort enrichment on an independent deadline; the
				// request context is about to be torn down.
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.timeoutSec)*time.Second)
				defer cancel()
				if book, lerr := s.lookup.Lookup(ctx, code); lerr == nil {
					ev.Book = book
				}
			}
			writer.send(ev)
			scanSessionsTotal.WithLabelValues("scanned").Inc()
			_ = conn.Close()
		},
		OnClose: func() {
			writer.send(ScanEvent{Type: "closed"})
			scanSessionsTotal.WithLabelValues("closed").Inc()
			_ = conn.Close()
		},
	})
	defer sess.Close()

	if err := sess.Start(r.Context()); err != nil {
		category, message, _ := sess.ErrorInfo()
		writer.send(ScanEvent{Type: "error", Category: string(category), Message: message})
		scanSessionsTotal.WithLabelValues("error").Inc()
		return
	}

	diag := sess.Diagnostics()
	writer.send(ScanEvent{Type: "ready", SessionID: sess.ID(), Diagnostics: &diag})

	s.serveScanConnection(conn, writer, sess, src)
}

func (s *Server) serveScanConnection(conn *websocket.Conn, writer *wsWriter, sess *session.Session, src *camera.PushSource) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("scan socket read ended", "session", sess.ID(), "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		switch msgType {
		case websocket.BinaryMessage:
			s.pushFrame(writer, src, data)
		case websocket.TextMessage:
			if done := s.handleScanCommand(writer, sess, data); done {
				return
			}
		}
	}
}

func (s *Server) pushFrame(writer *wsWriter, src *camera.PushSource, data []byte) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		writer.send(ScanEvent{Type: "error", Category: "bad-frame", Message: "undecodable frame"})
		return
	}
	if stream := src.ActiveStream(""); stream != nil {
		// Dropped frames are fine; the next one supersedes them.
		stream.Push(frame.FromImage(img))
	}
}

func (s *Server) handleScanCommand(writer *wsWriter, sess *session.Session, data []byte) bool {
	var cmd ScanCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		writer.send(ScanEvent{Type: "error", Category: "bad-command", Message: "undecodable command"})
		return false
	}
	switch cmd.Type {
	case "close":
		sess.Close()
		return true
	case "diagnostics":
		diag := sess.Diagnostics()
		writer.send(ScanEvent{Type: "diagnostics", SessionID: sess.ID(), Diagnostics: &diag})
	default:
		writer.send(ScanEvent{Type: "error", Category: "bad-command", Message: "unknown command " + cmd.Type})
	}
	return false
}

// isSecureRequest mirrors browser secure-context rules: TLS, or a loopback
// host during development.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
