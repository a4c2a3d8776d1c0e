package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ConfigAppliedEvent, 1)

	unsub := bus.Subscribe(func(e ConfigAppliedEvent) {
		received <- e
	})
	defer unsub()

	event := ConfigAppliedEvent{
		Mode:      "breathe",
		Source:    "sighup",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Mode != event.Mode {
		t.Errorf("Expected mode %s, got %s", event.Mode, got.Mode)
	}
	if got.Source != event.Source {
		t.Errorf("Expected source %s, got %s", event.Source, got.Source)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan ModeChangedEvent, 1)
	received2 := make(chan ModeChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e ModeChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e ModeChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(ModeChangedEvent{From: "static", To: "off"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan DeviceLostEvent, 1)

	unsub := bus.Subscribe(func(e DeviceLostEvent) {
		received <- e
	})

	bus.Publish(DeviceLostEvent{Path: "/dev/hidraw3"})
	<-received

	unsub()

	bus.Publish(DeviceLostEvent{Path: "/dev/hidraw4"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	appliedReceived := make(chan bool, 1)
	lostReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ ConfigAppliedEvent) {
		appliedReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ DeviceLostEvent) {
		lostReceived <- true
	})
	defer unsub2()

	bus.Publish(ConfigAppliedEvent{Mode: "static"})
	<-appliedReceived

	select {
	case <-lostReceived:
		t.Fatal("DeviceLost subscriber should NOT have received ConfigAppliedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(DeviceLostEvent{Path: "/dev/hidraw3"})
	<-lostReceived

	select {
	case <-appliedReceived:
		t.Fatal("ConfigApplied subscriber should NOT have received DeviceLostEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ FrameWrittenEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(FrameWrittenEvent{Mode: "breathe", Lamps: 128})
			}
		}()
	}

	wg.Wait()

	// Read all expected events
	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"ConfigApplied", ConfigAppliedEvent{Mode: "static"}},
		{"ConfigRejected", ConfigRejectedEvent{Error: "unknown mode"}},
		{"ModeChanged", ModeChangedEvent{From: "static", To: "breathe"}},
		{"DeviceLost", DeviceLostEvent{Path: "/dev/hidraw3"}},
		{"DeviceRecovered", DeviceRecoveredEvent{Path: "/dev/hidraw3", Attempts: 1}},
		{"FrameWritten", FrameWrittenEvent{Mode: "breathe", Envelope: 120}},
		{"ControlHandoff", ControlHandoffEvent{Autonomous: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case ConfigAppliedEvent:
				unsub = bus.Subscribe(func(e ConfigAppliedEvent) { received <- e })
			case ConfigRejectedEvent:
				unsub = bus.Subscribe(func(e ConfigRejectedEvent) { received <- e })
			case ModeChangedEvent:
				unsub = bus.Subscribe(func(e ModeChangedEvent) { received <- e })
			case DeviceLostEvent:
				unsub = bus.Subscribe(func(e DeviceLostEvent) { received <- e })
			case DeviceRecoveredEvent:
				unsub = bus.Subscribe(func(e DeviceRecoveredEvent) { received <- e })
			case FrameWrittenEvent:
				unsub = bus.Subscribe(func(e FrameWrittenEvent) { received <- e })
			case ControlHandoffEvent:
				unsub = bus.Subscribe(func(e ControlHandoffEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestEventJSONSerialization(t *testing.T) {
	tests := []struct {
		name  string
		event any
	}{
		{
			"ConfigAppliedEvent",
			ConfigAppliedEvent{
				Mode:      "breathe",
				Source:    "file",
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"DeviceLostEvent",
			DeviceLostEvent{
				Path:      "/dev/hidraw3",
				Error:     "write /dev/hidraw3: no such device",
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"ControlHandoffEvent",
			ControlHandoffEvent{
				Autonomous: true,
				Timestamp:  "2025-01-27T10:30:00Z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}

			if len(result) == 0 {
				t.Fatal("Unmarshaled to empty object")
			}
		})
	}
}

