// Package cache はTTL付きのプロセスローカルなキーバリューキャッシュを提供する。
//
// 上流の試合情報APIのレスポンスを保持する用途を想定しており、
// エントリ数が少ないため期限切れの掃除は参照時の遅延削除のみで行う。
package cache

import (
	"sync"
	"time"
)

// item は格納値と格納時刻を保持する。
type item[T any] struct {
	value    T
	storedAt time.Time
}

// Store はTTL付きのキーバリューキャッシュ。
// now - storedAt < TTL のエントリのみ有効とし、
// 期限切れエントリは次回参照時に透過的に削除される。
type Store[T any] struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]item[T]

	// now はテストで時計を差し替えるためのフック。
	now func() time.Time
}

// New は指定TTLのStoreを生成する。
func New[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:   ttl,
		items: make(map[string]item[T]),
		now:   time.Now,
	}
}

// SetNowFunc はテストで時計を差し替える。
func (s *Store[T]) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get はキーに対応する有効なエントリを返す。
// エントリが存在しない、または期限切れの場合はゼロ値とfalseを返す。
// 期限切れエントリはこの時点で削除される。
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T

	it, ok := s.items[key]
	if !ok {
		return zero, false
	}

	if s.now().Sub(it.storedAt) >= s.ttl {
		delete(s.items, key)
		return zero, false
	}

	return it.value, true
}

// Set はキーに値を格納する。既存エントリは上書きされる。
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item[T]{value: value, storedAt: s.now()}
}

// Len は現在格納されているエントリ数を返す（期限切れ含む）。
// テストおよびメトリクス用。
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
