// Package ratelimit は管理者ログイン試行の固定ウィンドウ型レート制限を提供する。
//
// リミッターはプロセスローカルなインメモリ実装であり、複数インスタンス構成での
// 正確性は保証しない（単一インスタンス運用を前提とした仕様上の制約）。
package ratelimit

import (
	"sync"
	"time"
)

// Config はレート制限の設定を保持する。
type Config struct {
	MaxAttempts   int           // ウィンドウあたりの最大試行回数
	Window        time.Duration // ウィンドウ長
	SweepInterval time.Duration // 期限切れエントリの掃除間隔
}

// DefaultConfig はデフォルトのレート制限設定を返す。
// 要件: 管理者ログイン 5回 / 15分、掃除間隔 5分。
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// entry は識別子ごとの試行回数とウィンドウのリセット時刻を保持する。
type entry struct {
	count   int
	resetAt time.Time
}

// Result はCheckの結果を表す。
type Result struct {
	Limited   bool      // 上限超過により拒否すべきか
	Remaining int       // ウィンドウ内の残り試行回数
	ResetAt   time.Time // 現在のウィンドウのリセット時刻
}

// Limiter は識別子（クライアントIP）ごとのログイン試行回数を管理する。
//
// Checkは確認と記録を兼ねており、呼び出すたびにカウントを消費する。
// ログイン以外の用途（読み取り専用の状態確認など）に流用すると
// 意図せずクォータを消費するため、呼び出し箇所はログイン試行1回につき
// 1回に限ること。
type Limiter struct {
	config Config

	mu       sync.Mutex
	attempts map[string]*entry

	stopCh chan struct{}

	// now はテストで時計を差し替えるためのフック。
	now func() time.Time
}

// NewLimiter は新しいLimiterを生成する。
// バックグラウンドで期限切れエントリの掃除を開始する。
func NewLimiter(config Config) *Limiter {
	l := &Limiter{
		config:   config,
		attempts: make(map[string]*entry),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}

	go l.sweepLoop()

	return l
}

// Stop は掃除のバックグラウンドゴルーチンを停止する。
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// Check は識別子の試行を記録し、上限超過かどうかを返す。
// 初見の識別子、またはウィンドウが経過済みの識別子は
// count=1の新しいウィンドウを開始し、制限なしを返す。
// ウィンドウ内の再試行はカウントを加算し、上限を超えた時点で制限ありを返す。
// 確認と加算はロック下で一体の操作として行う（同時リクエストの二重許可を防ぐ）。
func (l *Limiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.attempts[identifier]
	if !ok || now.After(e.resetAt) {
		// 初回またはウィンドウ経過済み: 新しいウィンドウを開始
		resetAt := now.Add(l.config.Window)
		l.attempts[identifier] = &entry{count: 1, resetAt: resetAt}
		return Result{
			Limited:   false,
			Remaining: l.config.MaxAttempts - 1,
			ResetAt:   resetAt,
		}
	}

	e.count++

	remaining := l.config.MaxAttempts - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Limited:   e.count > l.config.MaxAttempts,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}

// Reset は識別子の追跡状態を削除する。
// ログイン成功時に呼び出し、正当なユーザーの次回以降の試行を妨げないようにする。
// リミッター自身はログイン成否を関知しないため、成功時の解除は呼び出し元の責務。
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, identifier)
}

// TrackedCount は現在追跡中のエントリ数を返す。
// テストおよびメトリクス用。
func (l *Limiter) TrackedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// sweepLoop はバックグラウンドで期限切れエントリを定期的に削除する。
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// sweep はウィンドウが既に経過したエントリを削除し、メモリ使用量を抑える。
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, e := range l.attempts {
		if now.After(e.resetAt) {
			delete(l.attempts, id)
		}
	}
}
