package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"nmea-link/internal/gateway"
)

func TestRunServices_WaitsForEveryServiceToReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var finished atomic.Int32
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		// Still touching shared collaborators after cancellation.
		time.Sleep(30 * time.Millisecond)
		finished.Add(1)
		return ctx.Err()
	}

	time.AfterFunc(10*time.Millisecond, cancel)
	runServices(ctx, service{name: "a", run: slow}, service{name: "b", run: slow})

	if got := finished.Load(); got != 2 {
		t.Fatalf("runServices returned with %d of 2 services finished", got)
	}
}

func TestRunServices_FailureStopsTheOthers(t *testing.T) {
	var stopped atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		runServices(context.Background(),
			service{name: "web server", run: func(context.Context) error {
				return errors.New("listen tcp :80: address already in use")
			}},
			service{name: "gateway", run: func(ctx context.Context) error {
				<-ctx.Done()
				stopped.Store(true)
				return ctx.Err()
			}},
		)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("runServices did not return after a service failed")
	}
	if !stopped.Load() {
		t.Fatalf("expected the gateway to be stopped")
	}
}

func TestRunServices_GatewayStopsBeforeRuntimeClose(t *testing.T) {
	stubOpeners(t)
	rt, err := newRuntime(testConfig(t, "off"))
	if err != nil {
		t.Fatalf("newRuntime() error: %v", err)
	}
	rt.gateway.SetRole(gateway.RoleGenerator)
	rt.gateway.SetGeneratorRunning(true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var returned atomic.Bool
	runServices(ctx, service{name: "gateway", run: func(ctx context.Context) error {
		defer returned.Store(true)
		return rt.gateway.Run(ctx)
	}})
	if !returned.Load() {
		t.Fatalf("gateway loop still running")
	}
	rt.Close()
}
