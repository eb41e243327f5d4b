package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// WebSocketManager maintains the GUI client connections and fans live
// test data out to them.
type WebSocketManager struct {
	clients         map[*websocket.Conn]bool
	broadcast       chan models.LiveData
	statusBroadcast chan models.SystemStatus
	register        chan *websocket.Conn
	unregister      chan *websocket.Conn
	mutex           sync.Mutex
	connCount       int
}

// NewWebSocketManager creates a manager; call Run on its own goroutine.
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:         make(map[*websocket.Conn]bool),
		broadcast:       make(chan models.LiveData),
		statusBroadcast: make(chan models.SystemStatus),
		register:        make(chan *websocket.Conn),
		unregister:      make(chan *websocket.Conn),
		connCount:       0,
	}
}

// Run processes registrations and broadcasts until the process exits.
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mutex.Lock()
			if _, exists := manager.clients[client]; !exists {
				manager.clients[client] = true
				manager.connCount++
				log.Printf("websocket client connected, total: %d", manager.connCount)
			}
			manager.mutex.Unlock()

		case client := <-manager.unregister:
			manager.mutex.Lock()
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				manager.connCount--
				log.Printf("websocket client disconnected, total: %d", manager.connCount)
				client.Close()
			}
			manager.mutex.Unlock()

		case message := <-manager.broadcast:
			manager.mutex.Lock()
			for client := range manager.clients {
				if err := client.WriteJSON(message); err != nil {
					log.Printf("failed to send live data: %v, removing client", err)
					client.Close()
					delete(manager.clients, client)
					manager.connCount--
				}
			}
			manager.mutex.Unlock()

		case status := <-manager.statusBroadcast:
			manager.mutex.Lock()
			for client := range manager.clients {
				if err := client.WriteJSON(status); err != nil {
					log.Printf("failed to send status: %v, removing client", err)
					client.Close()
					delete(manager.clients, client)
					manager.connCount--
				}
			}
			manager.mutex.Unlock()
		}
	}
}

// BroadcastLiveData sends a chart snapshot to all connected clients.
func (manager *WebSocketManager) BroadcastLiveData(data models.LiveData) {
	manager.mutex.Lock()
	clientCount := len(manager.clients)
	manager.mutex.Unlock()

	if clientCount > 0 {
		manager.broadcast <- data
	}
}

// BroadcastStatus sends the periodic system status to all clients.
func (manager *WebSocketManager) BroadcastStatus(status models.SystemStatus) {
	manager.mutex.Lock()
	clientCount := len(manager.clients)
	manager.mutex.Unlock()

	if clientCount > 0 {
		manager.statusBroadcast <- status
	}
}

// CloseAll drops every client connection.
func (manager *WebSocketManager) CloseAll() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for client := range manager.clients {
		client.Close()
		delete(manager.clients, client)
	}

	manager.connCount = 0
	log.Println("all websocket connections closed")
}

// GetConnectedCount returns the number of connected clients.
func (manager *WebSocketManager) GetConnectedCount() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.connCount
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades an HTTP request and registers the client.
func (manager *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "not a websocket request", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn.SetCloseHandler(func(code int, text string) error {
		log.Printf("websocket closed with code %d: %s", code, text)
		manager.unregister <- conn
		return nil
	})

	manager.register <- conn

	go func() {
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				manager.unregister <- conn
				break
			}

			if messageType == websocket.PingMessage {
				if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
					log.Printf("failed to send pong: %v", err)
					manager.unregister <- conn
					break
				}
			}
		}
	}()
}

// ServeHTTP starts the HTTP server with the websocket endpoint and a
// small status API.
func (manager *WebSocketManager) ServeHTTP(addr string, status func() models.SystemStatus) {
	http.HandleFunc("/ws", manager.HandleWebSocket)

	http.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		info := struct {
			Version string `json:"version"`
			Name    string `json:"name"`
		}{
			Version: "1.0.0",
			Name:    "EGEA Suspension Tester",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != nil {
			json.NewEncoder(w).Encode(status())
			return
		}
		json.NewEncoder(w).Encode(models.SystemStatus{})
	})

	log.Printf("web and websocket server listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("failed to start HTTP server: ", err)
	}
}
