package numbering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taller-backend/internal/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errors.New("no se pudo reservar la numeración, intentá de nuevo")

// Allocator serializa la asignación de números por clave. Dentro del proceso usa un
// mutex por clave; con Redis configurado además toma un lock distribuido.
type Allocator struct {
	mu     sync.Mutex
	keys   map[string]*sync.Mutex
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewAllocator(rdb *redis.Client) *Allocator {
	a := &Allocator{
		keys: make(map[string]*sync.Mutex),
		ttl:  10 * time.Second,
		wait: 5 * time.Second,
	}
	if rdb != nil {
		a.locker = redislock.New(rdb)
	}
	return a
}

func (a *Allocator) keyMutex(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.keys[key]
	if !ok {
		m = &sync.Mutex{}
		a.keys[key] = m
	}
	return m
}

// Lock bloquea la clave hasta que se llame a la función devuelta. Hay que mantenerlo
// hasta el commit de la transacción que inserta el comprobante.
func (a *Allocator) Lock(ctx context.Context, key string) (func(), error) {
	m := a.keyMutex(key)
	m.Lock()

	if a.locker == nil {
		return m.Unlock, nil
	}

	retry := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(a.wait/(100*time.Millisecond)))
	lock, err := a.locker.Obtain(ctx, "numbering:"+key, a.ttl, &redislock.Options{RetryStrategy: retry})
	if err != nil {
		m.Unlock()
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("lock de numeración: %w", err)
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError("numbering", "Lock", "liberar lock", key, err)
		}
		m.Unlock()
	}, nil
}

var (
	defaultMu        sync.RWMutex
	defaultAllocator = NewAllocator(nil)
)

// SetDefault reemplaza el allocator usado por los handlers (con Redis en producción).
func SetDefault(a *Allocator) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultAllocator = a
}

func Lock(ctx context.Context, key string) (func(), error) {
	defaultMu.RLock()
	a := defaultAllocator
	defaultMu.RUnlock()
	return a.Lock(ctx, key)
}

func SaleKey(orgID uint, t string, pointOfSale string) string {
	return fmt.Sprintf("org:%d:sale:%s:%s", orgID, t, pointOfSale)
}

func PurchaseKey(orgID, supplierID uint, documentType string, pointOfSale string) string {
	return fmt.Sprintf("org:%d:purchase:%d:%s:%s", orgID, supplierID, documentType, pointOfSale)
}

func WorkOrderKey(orgID uint) string {
	return fmt.Sprintf("org:%d:work_order", orgID)
}
