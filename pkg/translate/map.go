package translate

import (
	"encoding/json"
	"maps"
	"sync"
)

// Map 行号到译文的稀疏映射，可以在翻译进行中读取
type Map struct {
	mu       sync.RWMutex
	target   string
	entries  map[int]string
	complete bool
}

// NewMap 创建某个目标语言的空映射
func NewMap(target string) *Map {
	return &Map{target: target, entries: make(map[int]string)}
}

// Target 目标语言
func (m *Map) Target() string {
	return m.target
}

// Get 获取某行的译文
func (m *Map) Get(index int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.entries[index]
	return text, ok
}

// Set 记录某行的译文
func (m *Map) Set(index int, text string) {
	m.mu.Lock()
	m.entries[index] = text
	m.mu.Unlock()
}

// Len 已翻译的行数
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Snapshot 返回当前内容的副本
func (m *Map) Snapshot() map[int]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.entries)
}

// Complete 是否已翻译完所有行
func (m *Map) Complete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.complete
}

func (m *Map) markComplete() {
	m.mu.Lock()
	m.complete = true
	m.mu.Unlock()
}

type mapJSON struct {
	Target   string         `json:"target"`
	Entries  map[int]string `json:"entries"`
	Complete bool           `json:"complete"`
}

func (m *Map) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(mapJSON{Target: m.target, Entries: m.entries, Complete: m.complete})
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var v mapJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Entries == nil {
		v.Entries = make(map[int]string)
	}
	m.mu.Lock()
	m.target, m.entries, m.complete = v.Target, v.Entries, v.Complete
	m.mu.Unlock()
	return nil
}
