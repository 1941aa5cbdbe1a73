package diary_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calvinalkan/diary/internal/diary"
)

func Test_Gate_Grants_Immediately_When_Free(t *testing.T) {
	t.Parallel()

	gate := diary.NewGate()

	release := gate.Acquire()
	release()

	release = gate.Acquire()
	release()

	if got := gate.Waiting(); got != 0 {
		t.Fatalf("Waiting()=%d, want=0", got)
	}
}

func Test_Gate_Serves_Waiters_In_Arrival_Order(t *testing.T) {
	t.Parallel()

	const waiters = 20

	gate := diary.NewGate()
	release := gate.Acquire()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)

	for i := range waiters {
		wg.Add(1)

		go func() {
			defer wg.Done()

			r := gate.Acquire()

			mu.Lock()
			order = append(order, i)
			mu.Unlock()

			r()
		}()

		// Each goroutine must be queued before the next one starts.
		waitForWaiting(t, gate, i+1)
	}

	release()
	wg.Wait()

	if len(order) != waiters {
		t.Fatalf("len(order)=%d, want=%d", len(order), waiters)
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("order=%v, want ascending", order)
		}
	}
}

func Test_Gate_Never_Has_Two_Holders(t *testing.T) {
	t.Parallel()

	gate := diary.NewGate()

	var (
		holders atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release := gate.Acquire()
			defer release()

			n := holders.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}

			time.Sleep(100 * time.Microsecond)
			holders.Add(-1)
		}()
	}

	wg.Wait()

	if got := maxSeen.Load(); got != 1 {
		t.Fatalf("max concurrent holders=%d, want=1", got)
	}
}

func Test_Gate_Release_Hands_Over_To_Waiter_Not_Newcomer(t *testing.T) {
	t.Parallel()

	gate := diary.NewGate()
	release := gate.Acquire()

	waiterDone := make(chan func())

	go func() {
		waiterDone <- gate.Acquire()
	}()

	waitForWaiting(t, gate, 1)
	release()

	// The queued waiter now owns the gate; a newcomer must queue.
	newcomer := make(chan func())

	go func() {
		newcomer <- gate.Acquire()
	}()

	waiterRelease := <-waiterDone

	waitForWaiting(t, gate, 1)

	select {
	case <-newcomer:
		t.Fatal("newcomer acquired while waiter held the gate")
	default:
	}

	waiterRelease()
	(<-newcomer)()
}

func waitForWaiting(t *testing.T, gate *diary.Gate, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for gate.Waiting() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d waiters, have %d", n, gate.Waiting())
		}

		time.Sleep(time.Millisecond)
	}
}
