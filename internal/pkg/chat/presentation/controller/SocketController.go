package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/auth"
	qport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/queue/port"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
	chat "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/domain"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/task"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/persistence/repository/adapter"
)

// SocketController owns the websocket endpoint: presence fan-out and direct
// message routing through the hub, history loads, and async archival.
type SocketController struct {
	hub             *realtime.Hub
	issuer          *auth.Issuer
	historyUC       *usecase.GetHistoryUseCase
	queue           qport.Client
	log             zerolog.Logger
	inflightTimeout time.Duration
}

func NewSocketController(pool *pgxpool.Pool, hub *realtime.Hub, issuer *auth.Issuer, queue qport.Client, log zerolog.Logger) *SocketController {
	repo := repoAdapter.NewPgMessageRepository(pool)
	return &SocketController{
		hub:             hub,
		issuer:          issuer,
		historyUC:       usecase.NewGetHistoryUseCase(repo),
		queue:           queue,
		log:             log,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Token auth happens before the upgrade; origin is not restricted.
		return true
	},
}

type openPayload struct {
	PeerID int64 `json:"peerId"`
}

type sendPayload struct {
	To   int64  `json:"to"`
	Text string `json:"text"`
}

type messagePayload struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Text       string    `json:"text"`
	Time       time.Time `json:"time"`
	FromUserID int64     `json:"fromUserId"`
	ToUserID   int64     `json:"toUserId"`
}

type historyPayload struct {
	PeerID   int64            `json:"peerId"`
	Messages []messagePayload `json:"messages"`
}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates the connection credential, upgrades, and processes
// frames until the client disconnects.
func (ctl *SocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			raw = c.GetHeader("Authorization")
		}
		raw = strings.TrimPrefix(strings.TrimSpace(raw), "Bearer ")
		claims, err := ctl.issuer.Verify(raw)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(claims.UserID, claims.Username, ws)
		ctl.hub.Attach(conn)
		defer func() {
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.log.Debug().Int64("user", conn.UserID).Err(err).Msg("ws read failed")
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame realtime.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}

			switch frame.Event {
			case realtime.EventPresenceGet:
				ctl.handlePresenceGet(conn)
			case realtime.EventDMOpen:
				ctl.handleOpen(c.Request.Context(), conn, frame.Data)
			case realtime.EventSend:
				ctl.handleSend(conn, frame.Data)
			default:
				ctl.log.Debug().Str("event", frame.Event).Msg("unknown ws event")
			}
		}
	}
}

func (ctl *SocketController) handlePresenceGet(conn *realtime.Connection) {
	if payload, err := realtime.EncodeFrame(realtime.EventPresenceList, ctl.hub.Snapshot()); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *SocketController) handleOpen(ctx context.Context, conn *realtime.Connection, data json.RawMessage) {
	var p openPayload
	if err := json.Unmarshal(data, &p); err != nil || p.PeerID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	msgs, err := ctl.historyUC.Execute(ctx, usecase.GetHistoryInput{
		UserID: conn.UserID,
		PeerID: p.PeerID,
		Limit:  50,
	})
	if err != nil {
		ctl.log.Warn().Int64("user", conn.UserID).Int64("peer", p.PeerID).Err(err).Msg("history load failed")
		return
	}

	out := historyPayload{PeerID: p.PeerID, Messages: make([]messagePayload, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toPayload(m))
	}
	if payload, err := realtime.EncodeFrame(realtime.EventDMHistory, out); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *SocketController) handleSend(conn *realtime.Connection, data json.RawMessage) {
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	msg, err := chat.NewDirectMessage(conn.UserID, conn.Username, p.To, p.Text)
	if err != nil {
		return
	}

	payload, err := realtime.EncodeFrame(realtime.EventMessage, toPayload(*msg))
	if err != nil {
		return
	}

	ctl.hub.SendToUser(msg.RecipientID, payload)
	// Echo to the sender so every client renders from the same event stream.
	if msg.RecipientID != conn.UserID {
		_ = conn.Send(payload)
	}

	ctl.enqueueArchive(*msg)
}

func (ctl *SocketController) enqueueArchive(m chat.DirectMessage) {
	b, err := json.Marshal(task.ArchiveMessagePayload{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()

	opts := qport.EnqueueOption{Queue: "chat", MaxRetry: 20}
	if _, err := ctl.queue.Enqueue(ctx, qport.Task{Type: task.ArchiveMessageTaskType, Payload: b}, opts); err != nil {
		ctl.log.Error().Str("msg", m.ID).Err(err).Msg("failed to enqueue archive task")
	}
}

func toPayload(m chat.DirectMessage) messagePayload {
	return messagePayload{
		ID:         m.ID,
		Author:     m.SenderName,
		Text:       m.Body,
		Time:       m.CreatedAt,
		FromUserID: m.SenderID,
		ToUserID:   m.RecipientID,
	}
}
