package broker

import (
	"context"
	"sync"
)

// Published 一次发布记录
type Published struct {
	Topic   Topic
	Payload any
}

// Recorder 记录所有发布的 Publisher，可注入失败
type Recorder struct {
	mu        sync.Mutex
	published []Published
	fail      error
}

// NewRecorder 创建发布记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish 记录发布；设置了失败时返回该错误且不记录
func (r *Recorder) Publish(_ context.Context, topic Topic, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.published = append(r.published, Published{Topic: topic, Payload: payload})
	return nil
}

// FailWith 之后的发布都返回 err，传 nil 恢复
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// All 全部发布记录（按发布顺序）
func (r *Recorder) All() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.published))
	copy(out, r.published)
	return out
}

// On 指定主题上的发布负载
func (r *Recorder) On(topic Topic) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, p := range r.published {
		if p.Topic == topic {
			out = append(out, p.Payload)
		}
	}
	return out
}

// Reset 清空记录
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = nil
}
