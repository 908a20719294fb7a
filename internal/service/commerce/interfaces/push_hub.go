package interfaces

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"mycommerce/internal/pkg/logger"
	"mycommerce/internal/service/commerce/domain/port"
)

// 单个连接的发送缓冲。写满说明消费端跟不上，事件被丢弃。
const clientSendBuffer = 64

// PushHub 维护在线用户的 WebSocket 连接，把订单事件实时推送给下单用户。
// 同时实现 port.OrderNotifier，用户不在线时静默丢弃。
//
// 每个连接只有 writePump 一个写入者：gorilla/websocket 不允许并发写同一个
// Conn，业务 goroutine 一律通过 send 通道投递。
type PushHub struct {
	mu      sync.RWMutex
	clients map[string]*pushClient

	upgrader websocket.Upgrader
}

// pushClient 一个已连接的用户
type pushClient struct {
	userID string
	conn   *websocket.Conn
	send   chan port.OrderEvent
}

func NewPushHub() *PushHub {
	return &PushHub{
		clients: make(map[string]*pushClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS 处理 GET /ws?userId= 的连接升级
func (h *PushHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &pushClient{
		userID: userID,
		conn:   conn,
		send:   make(chan port.OrderEvent, clientSendBuffer),
	}
	h.register(client)
	logger.Logger().Info().Str("user_id", userID).Msg("websocket client connected")

	go h.writePump(client)
	go h.readPump(client)
}

// Notify 把事件投进对应用户的发送通道，离线视为成功。
// 投递在持有读锁时进行，与 unregister 里的 close(send) 互斥，
// 不会写已关闭的通道。
func (h *PushHub) Notify(ctx context.Context, event port.OrderEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[event.UserID]
	if !ok {
		return nil
	}

	select {
	case client.send <- event:
	default:
		logger.Ctx(ctx).Warn().Str("user_id", event.UserID).Str("order_id", event.OrderID).
			Msg("push buffer full, dropping order event")
	}
	return nil
}

// writePump 是连接的唯一写入者，把发送通道串行写到连接上
func (h *PushHub) writePump(c *pushClient) {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			logger.Logger().Warn().Err(err).Str("user_id", c.userID).
				Msg("failed to push order event, dropping connection")
			h.unregister(c)
			return
		}
	}
}

// readPump 只用来感知断开
func (h *PushHub) readPump(c *pushClient) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *PushHub) register(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// 同一用户重连时替换旧连接，旧的 writePump 随通道关闭退出
	if old, ok := h.clients[c.userID]; ok {
		close(old.send)
	}
	h.clients[c.userID] = c
}

// unregister 摘除连接。只摘自己：重连后注册的新连接不受影响。
func (h *PushHub) unregister(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
		close(c.send)
		logger.Logger().Info().Str("user_id", c.userID).Msg("websocket client disconnected")
	}
}
