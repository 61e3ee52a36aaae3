package roomfeed

import "hotel/internal/domain"

type ClientMessage struct {
	Type string `json:"type"`
}

type ServerMessage struct {
	Type         string                   `json:"type"`
	Change       *domain.RoomStatusChange `json:"change,omitempty"`
	ErrorCode    string                   `json:"code,omitempty"`
	ErrorMessage string                   `json:"message,omitempty"`
}

func NewRoomStatusEvent(change domain.RoomStatusChange) *ServerMessage {
	return &ServerMessage{Type: "room_status", Change: &change}
}

func NewPongEvent() *ServerMessage {
	return &ServerMessage{Type: "pong"}
}

func NewErrorEvent(code, message string) *ServerMessage {
	return &ServerMessage{Type: "error", ErrorCode: code, ErrorMessage: message}
}
