package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WSConnManager хранит открытые WebSocket-соединения по пользователям;
// у пользователя может быть несколько вкладок
type WSConnManager struct {
	mu    sync.RWMutex
	users map[int64][]*websocket.Conn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]*websocket.Conn),
	}
}

func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], conn)
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.users[userID]
	for i, c := range conns {
		if c == conn {
			m.users[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Online сообщает, есть ли у пользователя открытые соединения
func (m *WSConnManager) Online(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID]) > 0
}

// Send пишет сообщение во все соединения пользователя; оффлайн - no-op
func (m *WSConnManager) Send(userID int64, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.users[userID] {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

// SendEvent доставляет уведомление получателю; оффлайн-получателю
// ничего не сериализуется
func (m *WSConnManager) SendEvent(userID int64, event NotifyEvent) {
	if !m.Online(userID) {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	m.Send(userID, data)
}

// CloseAll закрывает все соединения при остановке сервера
func (m *WSConnManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, conns := range m.users {
		for _, conn := range conns {
			_ = conn.Close()
		}
		delete(m.users, userID)
	}
}

var GlobalWSConnManager = NewWSConnManager()
