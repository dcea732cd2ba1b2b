// Package ratelimit ограничивает неудачные попытки входа по ключу
// клиента (IP): скользящее окно со счетчиком и локаутом.
// Состояние живет только в памяти, рестарт процесса сбрасывает локауты -
// осознанный компромисс для низкотрафикового админ-эндпоинта.
package ratelimit

import (
	"sync"
	"time"
)

// Параметры по умолчанию: 7 неудач за 15 минут ведут к локауту на 20 минут.
const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxAttempts = 7
	DefaultLockout     = 20 * time.Minute
)

// Decision - результат проверки ключа перед попыткой входа.
type Decision struct {
	Allowed    bool // можно ли выполнять попытку
	RetryAfter int  // секунд до снятия локаута (0 если Allowed)
}

type entry struct {
	firstAttemptAt time.Time
	lockUntil      time.Time
	attempts       int
}

// Limiter считает неудачные попытки входа по ключам.
type Limiter struct {
	entries     map[string]*entry
	now         func() time.Time
	window      time.Duration
	lockout     time.Duration
	maxAttempts int
	mu          sync.Mutex
}

// New создает Limiter с заданными окном, порогом и длительностью локаута.
func New(window time.Duration, maxAttempts int, lockout time.Duration) *Limiter {
	return &Limiter{
		entries:     make(map[string]*entry),
		now:         time.Now,
		window:      window,
		lockout:     lockout,
		maxAttempts: maxAttempts,
	}
}

// NewDefault создает Limiter с параметрами по умолчанию.
func NewDefault() *Limiter {
	return New(DefaultWindow, DefaultMaxAttempts, DefaultLockout)
}

// Check отклоняет попытку только пока действует локаут. Протухшее окно
// без локаута удаляется, само окно истекает лениво в RecordFailure.
func (l *Limiter) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.entries[key]
	if !ok {
		return Decision{Allowed: true}
	}

	now := l.now()
	if current.lockUntil.After(now) {
		remaining := current.lockUntil.Sub(now)
		retryAfter := int((remaining + time.Second - 1) / time.Second)
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	if now.Sub(current.firstAttemptAt) > l.window {
		delete(l.entries, key)
	}
	return Decision{Allowed: true}
}

// RecordFailure регистрирует неудачную попытку. Первая неудача (или
// неудача после истекшего окна) начинает новое окно; достижение порога
// внутри окна включает локаут.
func (l *Limiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	current, ok := l.entries[key]
	if !ok || now.Sub(current.firstAttemptAt) > l.window {
		l.entries[key] = &entry{firstAttemptAt: now, attempts: 1}
		return
	}

	current.attempts++
	if current.attempts >= l.maxAttempts {
		current.lockUntil = now.Add(l.lockout)
	}
}

// Clear удаляет состояние ключа после успешного входа.
func (l *Limiter) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
