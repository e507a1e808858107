package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/runner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Index   *int               `json:"index,omitempty"`
	Result  *runner.TestResult `json:"result,omitempty"`
	Report  *runner.Report     `json:"report,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()

	// A hijacked connection never cancels r.Context, so the reader cancels
	// in-flight runs once the client goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs := make(chan wsIncoming)
	go func() {
		defer cancel()
		defer close(msgs)
		for {
			var msg wsIncoming
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("websocket read error", "err", err)
				}
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range msgs {
		if msg.Type != "run" || strings.TrimSpace(msg.Code) == "" {
			s.wsWriteJSON(conn, nil, wsOutgoing{Type: "error", Content: "invalid message"})
			continue
		}
		s.processRun(ctx, conn, ch, msg.Code)
	}
}

// processRun streams one result message per case, then the report.
func (s *Server) processRun(ctx context.Context, conn *websocket.Conn, ch *challenge.Challenge, code string) {
	var wsMu sync.Mutex

	rn := s.newRunner()
	rn.OnResult = func(i int, res runner.TestResult) {
		s.wsWriteJSON(conn, &wsMu, wsOutgoing{Type: "result", Index: &i, Result: &res})
	}

	rep := s.report(ctx, rn, code, ch.EntryPoint, ch.Cases)
	if ctx.Err() != nil {
		return
	}
	s.wsWriteJSON(conn, &wsMu, wsOutgoing{Type: "done", Report: rep})
}

func (s *Server) wsWriteJSON(conn *websocket.Conn, mu *sync.Mutex, v any) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("websocket marshal error", "err", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("websocket write error", "err", err)
	}
}
