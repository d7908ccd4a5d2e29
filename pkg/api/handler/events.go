package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/plan-engine/pkg/core/engine"
	"github.com/LENAX/plan-engine/pkg/core/realtime"
)

// EventsHandler 实时事件推送处理器
// 将事件总线上的全部事件通过WebSocket推送给客户端
type EventsHandler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// NewEventsHandler 创建EventsHandler
func NewEventsHandler(eng *engine.Engine) *EventsHandler {
	return &EventsHandler{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream 建立WebSocket连接并推送事件
// GET /ws/events
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] 升级连接失败: %v", err)
		return
	}
	defer conn.Close()

	// 推送与连接写入分离：订阅回调只负责投递到通道
	events := make(chan *realtime.PlanEvent, 64)
	subID, err := h.engine.EventBus().SubscribeAll(func(event *realtime.PlanEvent) error {
		select {
		case events <- event:
		default:
			// 客户端消费过慢时丢弃，避免阻塞总线
		}
		return nil
	})
	if err != nil {
		log.Printf("[WS] 订阅事件失败: %v", err)
		return
	}
	defer h.engine.EventBus().Unsubscribe(subID)

	// 读取goroutine：检测客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[WS] 连接异常关闭: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[WS] 推送事件失败: %v", err)
				return
			}
		}
	}
}
