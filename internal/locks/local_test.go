package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker(0)
	key := InventoryKey("station-1")

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), key)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			now := atomic.AddInt32(&inside, 1)
			for {
				prev := atomic.LoadInt32(&maxInside)
				if now <= prev || atomic.CompareAndSwapInt32(&maxInside, prev, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = release(context.Background())
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxInside)
	}
	if locker.size() != 0 {
		t.Fatalf("expected entries to be cleaned up, got %d", locker.size())
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker(50 * time.Millisecond)
	releaseA, err := locker.Acquire(context.Background(), TradeKey("a"))
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA(context.Background())

	releaseB, err := locker.Acquire(context.Background(), TradeKey("b"))
	if err != nil {
		t.Fatalf("different key should not block: %v", err)
	}
	_ = releaseB(context.Background())

	// same id in another scope is a different key
	releaseC, err := locker.Acquire(context.Background(), CargoKey("a"))
	if err != nil {
		t.Fatalf("different scope should not block: %v", err)
	}
	_ = releaseC(context.Background())
}

func TestLocalLockerTimesOut(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	release, err := locker.Acquire(context.Background(), CargoKey("ship-1"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err = locker.Acquire(context.Background(), CargoKey("ship-1"))
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	_ = release(context.Background())
	_ = release(context.Background())
	if locker.size() != 0 {
		t.Fatalf("double release must not corrupt refcounts, got %d entries", locker.size())
	}
}

func TestLocalLockerHonorsCancellation(t *testing.T) {
	locker := NewLocalLocker(0)
	release, err := locker.Acquire(context.Background(), TradeKey("t"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locker.Acquire(ctx, TradeKey("t")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestKeyString(t *testing.T) {
	if got := InventoryKey("abc").String(); got != "inventory:abc" {
		t.Fatalf("unexpected key %q", got)
	}
}
