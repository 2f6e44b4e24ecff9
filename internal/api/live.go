package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/store"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
)

// LiveFrame is one push on /api/live.
type LiveFrame struct {
	Type    string            `json:"type"`
	Quota   *core.QuotaStatus `json:"quota,omitempty"`
	History []HistoryItem     `json:"history,omitempty"`
}

// LiveHandler streams quota and history changes of the caller until the
// client goes away.
func (h *Handler) LiveHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quota, err := h.quota.Watch(ctx, sess)
	if err != nil {
		slog.Error("failed to watch quota", "user_id", sess.UserID, "error", err)
		return
	}
	history, err := h.queries.WatchHistory(ctx, sess.UserID)
	if err != nil {
		slog.Error("failed to watch history", "user_id", sess.UserID, "error", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readUntilClosed(conn) })
	g.Go(func() error {
		// Closing unblocks the reader once pushing stops.
		defer conn.Close()
		return pushUpdates(ctx, conn, quota, history)
	})

	if err := g.Wait(); err != nil && !isNormalClose(err) {
		slog.Debug("live connection ended", "user_id", sess.UserID, "error", err)
	}
}

var errWatchClosed = errors.New("watch closed")

// readUntilClosed discards client messages so control frames are handled,
// and returns when the peer disconnects.
func readUntilClosed(conn *websocket.Conn) error {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func pushUpdates(ctx context.Context, conn *websocket.Conn, quota <-chan core.QuotaStatus, history <-chan []store.SavedQuery) error {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		var frame LiveFrame
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(liveWriteWait))
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return err
			}
			continue
		case status, ok := <-quota:
			if !ok {
				return errWatchClosed
			}
			frame = LiveFrame{Type: "quota", Quota: &status}
		case queries, ok := <-history:
			if !ok {
				return errWatchClosed
			}
			frame = LiveFrame{Type: "history", History: renderHistory(queries)}
		}

		conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
