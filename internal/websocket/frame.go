package websocket

import (
	"encoding/json"
	"time"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
)

// 客户端帧类型
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"
	FramePing        = "ping"
)

// 服务端帧类型
const (
	FrameConnected = "connected"
	FrameMessage   = "message"
	FrameError     = "error"
	FramePong      = "pong"
	FrameReceipt   = "receipt"
)

// ClientFrame 客户端发来的帧
type ClientFrame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	// Receipt 非空时处理成功后回执
	Receipt string `json:"receipt,omitempty"`
}

// ServerFrame 发给客户端的帧
type ServerFrame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	Receipt     string          `json:"receipt,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Code        int             `json:"code,omitempty"`
	Message     string          `json:"message,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}

// DecodeFrame 解析客户端帧
func DecodeFrame(raw []byte) (*ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}
	switch frame.Type {
	case FramePing:
	case FrameSubscribe, FrameUnsubscribe, FrameSend:
		if frame.Destination == "" {
			return nil, apperrors.Newf(apperrors.ErrMessageFormat, "%s 帧缺少 destination", frame.Type)
		}
	case "":
		return nil, apperrors.New(apperrors.ErrMessageFormat, "消息类型不能为空")
	default:
		return nil, apperrors.Newf(apperrors.ErrMessageFormat, "不支持的消息类型: %s", frame.Type)
	}
	return &frame, nil
}

func encodeFrame(frame *ServerFrame) ([]byte, error) {
	if frame.Timestamp == 0 {
		frame.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(frame)
}

func messageFrame(destination string, payload []byte) *ServerFrame {
	return &ServerFrame{
		Type:        FrameMessage,
		Destination: destination,
		Data:        payload,
	}
}

func errorFrame(err error) *ServerFrame {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	message := appErr.Message
	if appErr.Details != "" {
		message += ": " + appErr.Details
	}
	return &ServerFrame{
		Type:    FrameError,
		Code:    int(appErr.Code),
		Message: message,
	}
}
