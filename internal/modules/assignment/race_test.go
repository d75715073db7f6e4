// README: Pending-assignment loop tests racing the retry ticker against the
// auto-cancellation timer.
package assignment

import (
	"context"
	"strconv"
	"testing"
	"time"

	"nomnomgo/internal/config"
	"nomnomgo/internal/driver"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/types"
)

func fastCfg() config.AssignmentConfig {
	return config.AssignmentConfig{
		PollInterval: 10 * time.Millisecond,
		CancelAfter:  150 * time.Millisecond,
		Cooldown:     time.Minute,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestPendingLoop_AssignsWhenDriverAppears(t *testing.T) {
	o := pendingOrder("race-1")
	orders := newFakeOrders(o)
	dir := newFakeDirectory() // nobody in range yet
	h := newHarness(t, fastCfg(), orders, dir, newFakeCooldowns())

	if !h.svc.StartPending(o.ID) {
		t.Fatal("start pending should succeed")
	}

	// Let a couple of empty polls pass, then a driver shows up.
	time.Sleep(30 * time.Millisecond)
	dir.mu.Lock()
	d := driver.Driver{ID: 5, Name: "Late", Status: "AVAILABLE", Distance: 2.0}
	dir.nearby = append(dir.nearby, d)
	dir.drivers[d.ID] = d
	dir.mu.Unlock()

	waitFor(t, time.Second, func() bool {
		got, _ := orders.Get(context.Background(), o.ID)
		return got.DriverStatus == order.DriverAssigned
	})

	got, _ := orders.Get(context.Background(), o.ID)
	if got.Status != order.StatusPreparing {
		t.Fatalf("expected PREPARING after late assignment, got %s", got.Status)
	}
	if got.DriverID == nil || *got.DriverID != "5" {
		t.Fatal("expected the late driver on the order")
	}
	if h.canceller.callCount() != 0 {
		t.Fatal("auto-cancel must not fire once a driver is assigned")
	}

	waitFor(t, time.Second, func() bool { return !h.registry.Active(o.ID) })
}

func TestPendingLoop_AutoCancelsOnExpiry(t *testing.T) {
	o := pendingOrder("race-2")
	orders := newFakeOrders(o)
	h := newHarness(t, fastCfg(), orders, newFakeDirectory(), newFakeCooldowns())

	if !h.svc.StartPending(o.ID) {
		t.Fatal("start pending should succeed")
	}

	waitFor(t, time.Second, func() bool {
		got, _ := orders.Get(context.Background(), o.ID)
		return got.Status == order.StatusCancelled
	})

	got, _ := orders.Get(context.Background(), o.ID)
	if got.PaymentStatus != order.PaymentRefunded {
		t.Fatalf("expected REFUNDED after auto-cancel, got %s", got.PaymentStatus)
	}
	if h.canceller.callCount() != 1 {
		t.Fatalf("expected exactly one cancellation, got %d", h.canceller.callCount())
	}
	if h.registry.Active(o.ID) {
		t.Fatal("pending task must be unregistered after expiry")
	}
}

func TestPendingLoop_ExactlyOneOutcome(t *testing.T) {
	// The driver appears right around the expiry deadline. Whichever side
	// wins, the other must observe it and stand down: the order ends either
	// assigned or cancelled, never both, and at most one cancel fires.
	o := pendingOrder("race-3")
	orders := newFakeOrders(o)
	dir := newFakeDirectory()
	cfg := config.AssignmentConfig{
		PollInterval: 10 * time.Millisecond,
		CancelAfter:  60 * time.Millisecond,
		Cooldown:     time.Minute,
	}
	h := newHarness(t, cfg, orders, dir, newFakeCooldowns())

	if !h.svc.StartPending(o.ID) {
		t.Fatal("start pending should succeed")
	}

	time.Sleep(55 * time.Millisecond)
	dir.mu.Lock()
	d := driver.Driver{ID: 9, Status: "AVAILABLE", Distance: 1.0}
	dir.nearby = append(dir.nearby, d)
	dir.drivers[d.ID] = d
	dir.mu.Unlock()

	waitFor(t, time.Second, func() bool {
		got, _ := orders.Get(context.Background(), o.ID)
		return got.Status == order.StatusPreparing || got.Status == order.StatusCancelled
	})
	waitFor(t, time.Second, func() bool { return !h.registry.Active(o.ID) })

	got, _ := orders.Get(context.Background(), o.ID)
	switch got.Status {
	case order.StatusPreparing:
		if got.DriverStatus != order.DriverAssigned {
			t.Fatalf("assigned order with driver status %s", got.DriverStatus)
		}
		if h.canceller.callCount() != 0 {
			t.Fatal("cancel fired even though assignment won")
		}
	case order.StatusCancelled:
		if h.canceller.callCount() != 1 {
			t.Fatalf("expected one cancel, got %d", h.canceller.callCount())
		}
	default:
		t.Fatalf("unexpected final status %s", got.Status)
	}
}

func TestStopPending_HaltsLoop(t *testing.T) {
	o := pendingOrder("race-4")
	orders := newFakeOrders(o)
	h := newHarness(t, fastCfg(), orders, newFakeDirectory(), newFakeCooldowns())

	h.svc.StartPending(o.ID)
	if !h.svc.StopPending(o.ID) {
		t.Fatal("stop should find the task")
	}

	// Past the original expiry: the stopped loop must not have cancelled.
	time.Sleep(250 * time.Millisecond)
	got, _ := orders.Get(context.Background(), o.ID)
	if got.Status != order.StatusPending {
		t.Fatalf("stopped loop still acted on the order: %s", got.Status)
	}
	if h.canceller.callCount() != 0 {
		t.Fatal("cancel fired after StopPending")
	}
}

// rejectedOrder builds an order mid-delivery so a rejection can revert it.
// After Reject it sits at PREPARING with the driver slot reopened, which is
// the state the retry loop has to keep working.
func rejectedOrder(id types.ID, driverID int64) *order.Order {
	o := pendingOrder(id)
	o.Status = order.StatusPreparing
	did := types.ID(strconv.FormatInt(driverID, 10))
	o.DriverID = &did
	o.DriverStatus = order.DriverAssigned
	return o
}

func TestPendingLoop_ResumesAfterRejection(t *testing.T) {
	o := rejectedOrder("race-5", 7)
	orders := newFakeOrders(o)
	dir := newFakeDirectory()
	dir.drivers[7] = driver.Driver{ID: 7, Name: "Quit", Status: "BUSY", Distance: 1.0}
	h := newHarness(t, fastCfg(), orders, dir, newFakeCooldowns())

	res, err := h.svc.Reject(context.Background(), o.ID, 7)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !res.Pending {
		t.Fatal("reject with empty pool should go pending")
	}
	if !h.registry.Active(o.ID) {
		t.Fatal("pending task should be registered after rejection")
	}

	// A few polls on the reverted PREPARING order, then a replacement
	// appears.
	time.Sleep(30 * time.Millisecond)
	dir.mu.Lock()
	d := driver.Driver{ID: 8, Name: "Late", Status: "AVAILABLE", Distance: 2.0}
	dir.nearby = append(dir.nearby, d)
	dir.drivers[d.ID] = d
	dir.mu.Unlock()

	waitFor(t, time.Second, func() bool {
		got, _ := orders.Get(context.Background(), o.ID)
		return got.DriverStatus == order.DriverAssigned
	})

	got, _ := orders.Get(context.Background(), o.ID)
	if got.DriverID == nil || *got.DriverID != "8" {
		t.Fatal("expected the replacement driver on the order")
	}
	if h.canceller.callCount() != 0 {
		t.Fatal("auto-cancel must not fire once a replacement is assigned")
	}
	waitFor(t, time.Second, func() bool { return !h.registry.Active(o.ID) })
}

func TestPendingLoop_RejectedOrderExpires(t *testing.T) {
	o := rejectedOrder("race-6", 7)
	orders := newFakeOrders(o)
	dir := newFakeDirectory()
	dir.drivers[7] = driver.Driver{ID: 7, Name: "Quit", Status: "BUSY", Distance: 1.0}
	h := newHarness(t, fastCfg(), orders, dir, newFakeCooldowns())

	res, err := h.svc.Reject(context.Background(), o.ID, 7)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !res.Pending {
		t.Fatal("reject with empty pool should go pending")
	}

	// No replacement ever shows up: the reverted order must still hit the
	// auto-cancel, not sit at PREPARING forever.
	waitFor(t, time.Second, func() bool {
		got, _ := orders.Get(context.Background(), o.ID)
		return got.Status == order.StatusCancelled
	})

	got, _ := orders.Get(context.Background(), o.ID)
	if got.PaymentStatus != order.PaymentRefunded {
		t.Fatalf("expected REFUNDED after auto-cancel, got %s", got.PaymentStatus)
	}
	if h.canceller.callCount() != 1 {
		t.Fatalf("expected exactly one cancellation, got %d", h.canceller.callCount())
	}
	if h.registry.Active(o.ID) {
		t.Fatal("pending task must be unregistered after expiry")
	}
}
