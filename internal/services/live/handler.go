package live

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/internal/middleware"
	"github.com/curator/console/internal/utils"
	"github.com/curator/console/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: check Origin against Server.AllowedOrigins
		return true
	},
}

type Handler struct {
	hub       *Hub
	jwtSecret string
}

func NewHandler(hub *Hub, jwtSecret string) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(h.jwtSecret))
		r.Get("/duty", h.GetOnDuty)
	})

	return r
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}
	if token == "" {
		if cookie, err := r.Cookie("console_session"); err == nil {
			token = cookie.Value
		}
	}

	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateSessionToken(token, h.jwtSecret)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(claims.OperatorID, conn, h.hub)
	h.hub.register <- client

	client.SendEvent(&Event{
		Type: EventTypeReady,
		Data: map[string]interface{}{
			"clientId": client.ID.String(),
			"uid":      claims.OperatorID,
		},
	})

	go client.WritePump()
	go client.ReadPump()
}

// GetOnDuty lists the operators with an open console right now.
func (h *Handler) GetOnDuty(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, map[string]interface{}{
		"operators": h.hub.OnlineOperators(),
	})
}
