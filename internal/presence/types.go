package presence

import "time"

// EventType 在线事件类型
type EventType string

const (
	EventJoin   EventType = "JOIN"
	EventUpdate EventType = "UPDATE"
	EventLeave  EventType = "LEAVE"
)

// PlayerState 玩家在展厅内的最后已知状态，同时也是广播负载
type PlayerState struct {
	UserID    *int64    `json:"userId"`
	Nickname  string    `json:"nickname"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CharIndex int       `json:"charIndex"`
	HallID    int64     `json:"hallId"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// InboundFrame 客户端上报的在线帧，类型由目的地决定
type InboundFrame struct {
	UserID    *int64  `json:"userId"`
	Nickname  string  `json:"nickname"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	CharIndex int     `json:"charIndex"`
}

// stamp 由服务端补全展厅、时间和事件类型
func (f InboundFrame) stamp(hallID int64, kind EventType, at time.Time) PlayerState {
	return PlayerState{
		UserID:    f.UserID,
		Nickname:  f.Nickname,
		X:         f.X,
		Y:         f.Y,
		CharIndex: f.CharIndex,
		HallID:    hallID,
		Timestamp: at,
		Type:      kind,
	}
}

// Occupant 展厅在线成员
type Occupant struct {
	SessionID string      `json:"sessionId"`
	State     PlayerState `json:"state"`
}
