package broker

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
)

// Topic 广播主题地址
type Topic string

// 主题前缀
const (
	hallPrefix     = "/topic/hall."
	hallChatPrefix = "/topic/hall.chat."
	boothPrefix    = "/topic/booth."
	ownerPrefix    = "/topic/owner."
)

// HallTopic 展厅在线状态主题
func HallTopic(hallID int64) Topic {
	return Topic(hallPrefix + strconv.FormatInt(hallID, 10))
}

// HallChatTopic 展厅聊天主题
func HallChatTopic(hallID int64) Topic {
	return Topic(hallChatPrefix + strconv.FormatInt(hallID, 10))
}

// BoothTopic 展位聊天主题
func BoothTopic(boothID int64) Topic {
	return Topic(boothPrefix + strconv.FormatInt(boothID, 10))
}

// OwnerTopic 展位所有者私有通知主题
func OwnerTopic(userID int64) Topic {
	return Topic(ownerPrefix + strconv.FormatInt(userID, 10))
}

// IsOwner 是否为所有者私有主题
func (t Topic) IsOwner() bool {
	return strings.HasPrefix(string(t), ownerPrefix)
}

// String 实现 fmt.Stringer
func (t Topic) String() string {
	return string(t)
}

// ParseTopic 校验订阅地址，只接受已知前缀加正整数ID
func ParseTopic(raw string) (Topic, error) {
	// hall.chat. 必须先于 hall. 判断
	for _, prefix := range []string{hallChatPrefix, hallPrefix, boothPrefix, ownerPrefix} {
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		if _, err := parseID(strings.TrimPrefix(raw, prefix)); err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrInvalidTopic, "topic=%s", raw)
		}
		return Topic(raw), nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidTopic, "topic=%s", raw)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id必须为正数: %d", id)
	}
	return id, nil
}
