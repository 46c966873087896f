// cache — кэш небольших JSON-сериализуемых значений (cache-aside).
//
// Основная реализация работает поверх Redis; при отсутствии Redis используется
// in-process LRU с TTL. Ошибки кэша никогда не должны ронять запрос:
// см. GetOrLoad.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed — кэш уже закрыт.
var ErrClosed = errors.New("cache closed")

// Cache — минимальный контракт кэша. Инвалидации нет: кэшируются только
// неизменяемые представления, устаревание ограничено TTL.
type Cache interface {
	// Get заполняет dst и сообщает, найдено ли значение.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set сохраняет значение с TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Ping проверяет доступность бэкенда.
	Ping(ctx context.Context) error
	// Close освобождает ресурсы.
	Close() error
}
