package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
)

func TestParseDestination(t *testing.T) {
	valid := map[string]Destination{
		"/app/player.join.5":     {Route: RoutePlayerJoin, ID: 5},
		"/app/player.position.5": {Route: RoutePlayerPosition, ID: 5},
		"/app/player.leave.12":   {Route: RoutePlayerLeave, ID: 12},
		"/app/chat.booth.7":      {Route: RouteChatBooth, ID: 7},
		"/app/chat.join.7":       {Route: RouteChatJoin, ID: 7},
		"/app/chat.hall.3":       {Route: RouteChatHall, ID: 3},
	}
	for raw, want := range valid {
		got, err := ParseDestination(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	unknown := []string{"", "/topic/hall.5", "/app/", "/app/player.jump.5", "/app/5", "/app/chat.5"}
	for _, raw := range unknown {
		_, err := ParseDestination(raw)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnknownRoute), raw)
	}

	badID := []string{"/app/player.join.0", "/app/player.join.-3", "/app/player.join.abc", "/app/chat.booth."}
	for _, raw := range badID {
		_, err := ParseDestination(raw)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidFrame), raw)
	}
}

func TestDecodeFrame(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"type":"send","destination":"/app/chat.booth.1","data":{"message":"hi"},"receipt":"r1"}`))
	require.NoError(t, err)
	assert.Equal(t, FrameSend, frame.Type)
	assert.Equal(t, "/app/chat.booth.1", frame.Destination)
	assert.JSONEq(t, `{"message":"hi"}`, string(frame.Data))
	assert.Equal(t, "r1", frame.Receipt)

	frame, err = DecodeFrame([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, FramePing, frame.Type)

	for _, raw := range []string{`not json`, `{}`, `{"type":"subscribe"}`, `{"type":"launch"}`} {
		_, err := DecodeFrame([]byte(raw))
		assert.True(t, apperrors.Is(err, apperrors.ErrMessageFormat), raw)
	}
}

func TestErrorFrame(t *testing.T) {
	frame := errorFrame(apperrors.New(apperrors.ErrEmptyMessage))
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, int(apperrors.ErrEmptyMessage), frame.Code)
	assert.Equal(t, "消息内容为空", frame.Message)

	frame = errorFrame(apperrors.New(apperrors.ErrBoothNotFound, "booth_id=9"))
	assert.Equal(t, "展位不存在: booth_id=9", frame.Message)
}
