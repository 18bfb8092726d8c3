package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/klava/internal/engine"
)

const writeWait = 10 * time.Second

type inbound struct {
	msg ClientMsg
	err error
}

// session drives one engine from one websocket connection. Only run touches
// the engine and writes to the connection.
type session struct {
	conn     *websocket.Conn
	eng      *engine.Engine
	srv      *Server
	logger   *slog.Logger
	ticker   *time.Ticker
	tickC    <-chan time.Time
	epoch    uint64
	interval time.Duration
}

// maxFrameBytes bounds a single client frame. Key and reset frames are a
// few dozen bytes.
const maxFrameBytes = 512

// readLoop forwards decoded frames until the connection fails.
func readLoop(conn *websocket.Conn, validate *validator.Validate, out chan<- inbound, logger *slog.Logger) {
	defer close(out)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		var msg ClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			out <- inbound{err: err}
			continue
		}
		if err := validate.Struct(msg); err != nil {
			out <- inbound{err: err}
			continue
		}
		out <- inbound{msg: msg}
	}
}

func (s *session) run(ctx context.Context, in <-chan inbound) {
	defer s.stopTicker()
	if !s.sendView() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-in:
			if !ok {
				return
			}
			if item.err != nil {
				s.logger.Debug("rejected client frame", "error", item.err)
				if !s.send(ServerMsg{Type: MsgError, Err: item.err.Error()}) {
					return
				}
				continue
			}
			if !s.handle(item.msg) {
				return
			}
		case <-s.tickC:
			tr := s.eng.OnTick(s.epoch)
			if !tr.Changed {
				s.stopTicker()
				continue
			}
			if !s.after(tr) {
				return
			}
		}
	}
}

// handle applies one client frame. It returns false when the connection is
// no longer writable.
func (s *session) handle(msg ClientMsg) bool {
	switch msg.Type {
	case MsgReset:
		mode, goal, err := resetTarget(msg)
		if err != nil {
			return s.send(ServerMsg{Type: MsgError, Err: err.Error()})
		}
		if err := s.eng.Reset(mode, goal); err != nil {
			return s.send(ServerMsg{Type: MsgError, Err: err.Error()})
		}
		s.stopTicker()
		return s.sendView()
	default:
		k, err := keyFromMessage(msg)
		if err != nil {
			return s.send(ServerMsg{Type: MsgError, Err: err.Error()})
		}
		tr := s.eng.OnKey(k)
		if !tr.Changed {
			return true
		}
		if tr.Reset {
			s.stopTicker()
		}
		if v := s.eng.View(); tr.Started && v.TimerRunning {
			s.startTicker(v.TimerEpoch)
		}
		return s.after(tr)
	}
}

func (s *session) after(tr engine.Transition) bool {
	if !tr.Finished {
		return s.sendView()
	}
	s.stopTicker()
	s.persist()
	if !s.sendView() {
		return false
	}
	return s.send(ServerMsg{Type: MsgResult, Value: s.eng.View().Result})
}

func (s *session) persist() {
	if s.srv.opts.Store == nil {
		return
	}
	record, chars, ok := s.eng.Record(s.srv.opts.Lang)
	if !ok {
		return
	}
	id, err := s.srv.opts.Store.InsertSession(context.Background(), record, chars)
	if err != nil {
		s.logger.Error("failed to save session", "error", err)
		return
	}
	s.logger.Info("session saved", "id", id, "mode", record.Mode, "goal", record.Goal, "wpm", record.WPM, "accuracy", record.Accuracy)
}

func (s *session) startTicker(epoch uint64) {
	s.stopTicker()
	s.ticker = time.NewTicker(s.interval)
	s.tickC = s.ticker.C
	s.epoch = epoch
}

func (s *session) stopTicker() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
	s.tickC = nil
}

func (s *session) sendView() bool {
	return s.send(ServerMsg{Type: MsgView, Value: newViewFrame(s.eng.View())})
}

func (s *session) send(msg ServerMsg) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode frame", "type", msg.Type, "error", err)
		return true
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
		return false
	}
	return true
}
