package broker

import (
	"context"
	"encoding/json"
	"sync"

	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"go.uber.org/zap"
)

// Publisher 向主题发布事件
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload any) error
}

// Subscriber 主题订阅者（通常是一个WebSocket连接）
type Subscriber interface {
	// SubscriberID 订阅者唯一标识
	SubscriberID() string
	// Deliver 投递已编码的消息，不得阻塞
	Deliver(topic Topic, payload []byte) error
}

// Broker 进程内发布订阅
//
// 只投递给发布时已订阅的订阅者；单个订阅者投递失败不影响其他订阅者。
type Broker struct {
	mu     sync.RWMutex
	topics map[Topic]map[string]Subscriber
	logger *zap.Logger
}

// NewBroker 创建进程内发布订阅
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		topics: make(map[Topic]map[string]Subscriber),
		logger: logger,
	}
}

// Subscribe 订阅主题，重复订阅幂等
func (b *Broker) Subscribe(topic Topic, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[string]Subscriber)
		b.topics[topic] = subs
	}
	subs[sub.SubscriberID()] = sub
}

// Unsubscribe 取消订阅，主题无订阅者时移除
func (b *Broker) Unsubscribe(topic Topic, subscriberID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		return false
	}
	if _, ok := subs[subscriberID]; !ok {
		return false
	}
	delete(subs, subscriberID)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
	return true
}

// UnsubscribeAll 取消订阅者的全部订阅，返回取消数量
func (b *Broker) UnsubscribeAll(subscriberID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for topic, subs := range b.topics {
		if _, ok := subs[subscriberID]; !ok {
			continue
		}
		delete(subs, subscriberID)
		removed++
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
	return removed
}

// SubscriberCount 主题当前订阅者数量
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// TopicCount 当前活跃主题数量
func (b *Broker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// Publish 编码一次后扇出给当前订阅者
func (b *Broker) Publish(ctx context.Context, topic Topic, payload any) error {
	if topic == "" {
		return apperrors.New(apperrors.ErrInvalidTopic, "主题为空")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCanceled)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrPublish, "编码消息失败")
	}

	// 快照订阅者，投递在锁外进行
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.topics[topic]))
	for _, sub := range b.topics[topic] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Deliver(topic, data); err != nil {
			b.logger.Warn("消息投递失败",
				zap.String("topic", topic.String()),
				zap.String("subscriber", sub.SubscriberID()),
				zap.Error(err),
			)
		}
	}

	b.logger.Debug("消息已发布",
		zap.String("topic", topic.String()),
		zap.Int("subscribers", len(subs)),
	)
	return nil
}
