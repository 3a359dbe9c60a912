package presence

import (
	"sort"
	"sync"
	"time"
)

// hallBucket 单个展厅的会话表
//
// dead 置位后桶已从索引摘除，持有旧指针的写入方必须重新查找。
type hallBucket struct {
	mu       sync.Mutex
	sessions map[string]PlayerState
	dead     bool
}

// Registry 展厅在线状态表：hallID -> sessionID -> PlayerState
//
// 索引由 mu 保护，每个展厅桶有独立的锁，不同展厅之间互不争用。
// 锁顺序固定为先 Registry.mu 后 hallBucket.mu。
type Registry struct {
	mu    sync.RWMutex
	halls map[int64]*hallBucket
	now   func() time.Time
}

// NewRegistry 创建在线状态表
func NewRegistry() *Registry {
	return &Registry{
		halls: make(map[int64]*hallBucket),
		now:   time.Now,
	}
}

// bucket 查找展厅桶，create 为真时按需创建
func (r *Registry) bucket(hallID int64, create bool) *hallBucket {
	r.mu.RLock()
	b := r.halls[hallID]
	r.mu.RUnlock()
	if b != nil || !create {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b = r.halls[hallID]; b == nil {
		b = &hallBucket{sessions: make(map[string]PlayerState)}
		r.halls[hallID] = b
	}
	return b
}

// mutate 在展厅桶锁内执行 fn，桶变空时立即回收
func (r *Registry) mutate(hallID int64, create bool, fn func(sessions map[string]PlayerState)) {
	for {
		b := r.bucket(hallID, create)
		if b == nil {
			return
		}

		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}
		fn(b.sessions)
		empty := len(b.sessions) == 0
		b.mu.Unlock()

		if empty {
			r.reap(hallID, b)
		}
		return
	}
}

// reap 摘除空桶；期间有新写入则放弃
func (r *Registry) reap(hallID int64, b *hallBucket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sessions) != 0 || b.dead || r.halls[hallID] != b {
		return
	}
	b.dead = true
	delete(r.halls, hallID)
}

// AddPlayer 注册或覆盖会话状态
func (r *Registry) AddPlayer(hallID int64, sessionID string, state PlayerState) {
	r.mutate(hallID, true, func(sessions map[string]PlayerState) {
		sessions[sessionID] = state
	})
}

// UpdatePosition 覆盖会话状态；会话未注册时按隐式加入处理并返回 true
func (r *Registry) UpdatePosition(hallID int64, sessionID string, state PlayerState) (implicitJoin bool) {
	r.mutate(hallID, true, func(sessions map[string]PlayerState) {
		_, known := sessions[sessionID]
		implicitJoin = !known
		sessions[sessionID] = state
	})
	return implicitJoin
}

// RemovePlayer 移除会话，返回移除前的状态；会话不存在时为空操作
func (r *Registry) RemovePlayer(hallID int64, sessionID string) (PlayerState, bool) {
	var (
		removed PlayerState
		found   bool
	)
	r.mutate(hallID, false, func(sessions map[string]PlayerState) {
		removed, found = sessions[sessionID]
		delete(sessions, sessionID)
	})
	return removed, found
}

// RemoveBySession 从所有展厅移除会话，每移除一处返回一条 LEAVE 状态
func (r *Registry) RemoveBySession(sessionID string) []PlayerState {
	r.mu.RLock()
	hallIDs := make([]int64, 0, len(r.halls))
	for id := range r.halls {
		hallIDs = append(hallIDs, id)
	}
	r.mu.RUnlock()
	sort.Slice(hallIDs, func(i, j int) bool { return hallIDs[i] < hallIDs[j] })

	var leaves []PlayerState
	for _, hallID := range hallIDs {
		last, ok := r.RemovePlayer(hallID, sessionID)
		if !ok {
			continue
		}
		last.HallID = hallID
		last.Type = EventLeave
		last.Timestamp = r.now()
		leaves = append(leaves, last)
	}
	return leaves
}

// ListOccupants 展厅内除 excludingSessionID 外所有会话的快照，按会话ID排序
func (r *Registry) ListOccupants(hallID int64, excludingSessionID string) []Occupant {
	b := r.bucket(hallID, false)
	if b == nil {
		return nil
	}

	b.mu.Lock()
	occupants := make([]Occupant, 0, len(b.sessions))
	for sid, state := range b.sessions {
		if sid == excludingSessionID {
			continue
		}
		occupants = append(occupants, Occupant{SessionID: sid, State: state})
	}
	b.mu.Unlock()

	sort.Slice(occupants, func(i, j int) bool { return occupants[i].SessionID < occupants[j].SessionID })
	return occupants
}

// OccupantCount 展厅当前在线人数，未知展厅返回0
func (r *Registry) OccupantCount(hallID int64) int {
	b := r.bucket(hallID, false)
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// HallCount 当前有人的展厅数量
func (r *Registry) HallCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.halls)
}

// Lookup 查询单个会话状态
func (r *Registry) Lookup(hallID int64, sessionID string) (PlayerState, bool) {
	b := r.bucket(hallID, false)
	if b == nil {
		return PlayerState{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.sessions[sessionID]
	return state, ok
}
