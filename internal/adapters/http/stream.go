package httpadapter

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// same open policy as the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// switchRequest is the one client-to-server frame: switching the active
// plot replaces the live subscription with one for the new plot.
type switchRequest struct {
	PlotID string `json:"plot_id"`
}

type logSnapshot struct {
	PlotID   string            `json:"plot_id"`
	Messages []messageResponse `json:"messages"`
}

// handleStream pushes ordered log snapshots over a websocket. Each
// connection is one session and holds at most one live subscription;
// ending the session tears it down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, plotID domain.PlotID) {
	userID := domain.UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	sync := chatlog.New(s.messages)
	defer sync.Close()

	switches := make(chan domain.PlotID, 1)
	go readPump(ctx, conn, switches, cancel)

	current := plotID
	for {
		plot, err := s.plots.GetPlot(ctx, userID, current)
		if err != nil {
			log.Warn("stream plot lookup failed", "plot_id", current, "error", err)
			return
		}

		live, err := sync.Switch(ctx, userID, current, plot.Name)
		if err != nil {
			log.Error("stream subscription failed", "plot_id", current, "error", err)
			return
		}

		next, ok := s.pushUntilSwitch(ctx, conn, live, current, switches)
		if !ok {
			return
		}
		current = next
	}
}

// pushUntilSwitch forwards snapshots to the client until the session
// ends or the client switches plots. Returns the next plot and whether
// the session continues.
func (s *Server) pushUntilSwitch(
	ctx context.Context,
	conn *websocket.Conn,
	live *chatlog.LiveLog,
	plotID domain.PlotID,
	switches <-chan domain.PlotID,
) (domain.PlotID, bool) {
	for {
		select {
		case <-ctx.Done():
			return "", false
		case next, ok := <-switches:
			if !ok {
				return "", false
			}
			// Switch on the synchronizer closes this live view
			return next, true
		case snap, ok := <-live.Updates():
			if !ok {
				return "", false
			}
			payload := logSnapshot{
				PlotID:   string(plotID),
				Messages: toMessagesResponse(snap),
			}
			if err := conn.WriteJSON(payload); err != nil {
				return "", false
			}
		}
	}
}

// readPump consumes client frames: plot switches, and the close that
// ends the session.
func readPump(ctx context.Context, conn *websocket.Conn, switches chan<- domain.PlotID, cancel context.CancelFunc) {
	defer cancel()
	defer close(switches)

	for {
		var req switchRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.PlotID == "" {
			continue
		}
		select {
		case switches <- domain.PlotID(req.PlotID):
		case <-ctx.Done():
			return
		}
	}
}
