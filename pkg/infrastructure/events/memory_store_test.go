package events

import (
	"errors"
	"testing"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestInMemoryJournal_AppendAndRead(t *testing.T) {
	journal := NewInMemoryJournal(zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := journal.Append("REF_A", NewEvent(ShortfallDetectedEvent, "REF_A", i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if _, err := journal.Append("REF_B", NewEvent(SafetyBreachDetectedEvent, "REF_B", 99)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stream, err := journal.ReadStream("REF_A", 2)
	if err != nil {
		t.Fatalf("ReadStream failed: %v", err)
	}
	if len(stream) != 2 {
		t.Fatalf("Expected 2 events from version 2, got %d", len(stream))
	}
	if stream[0].Version() != 2 || stream[0].Data().(int) != 1 {
		t.Errorf("Expected version 2 with data 1, got version %d data %v", stream[0].Version(), stream[0].Data())
	}

	all, _ := journal.ReadAll(3)
	if len(all) != 1 || all[0].StreamID() != "REF_B" || all[0].Position() != 3 {
		t.Errorf("Expected REF_B event at position 3, got %+v", all)
	}

	if got, _ := journal.ReadStream("MISSING", 1); len(got) != 0 {
		t.Errorf("Expected empty stream, got %d events", len(got))
	}
	if journal.Len() != 4 {
		t.Errorf("Expected 4 events, got %d", journal.Len())
	}
}

func TestInMemoryJournal_SubscribersAreNotified(t *testing.T) {
	journal := NewInMemoryJournal(zap.NewNop())

	var received []string
	handler := HandlerFunc{
		Types: []string{ShortfallDetectedEvent},
		Fn: func(e Event) error {
			received = append(received, e.StreamID())
			return errors.New("handler errors are logged, not returned")
		},
	}
	if err := journal.Subscribe([]string{ShortfallDetectedEvent}, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	journal.Append("REF_A", NewEvent(ShortfallDetectedEvent, "REF_A", nil))
	journal.Append("REF_B", NewEvent(SafetyBreachDetectedEvent, "REF_B", nil))
	journal.Append("REF_C", NewEvent(ShortfallDetectedEvent, "REF_C", nil))

	if len(received) != 2 || received[0] != "REF_A" || received[1] != "REF_C" {
		t.Errorf("Expected notifications for REF_A and REF_C, got %v", received)
	}
}

func TestNewStockAlertEvent(t *testing.T) {
	row := entities.PlanningRow{
		Reference:      "REF_A",
		Week:           "3",
		Status:         entities.StatusSafetyStockBreach,
		RemainingStock: decimal.NewFromInt(1),
		SafetyStock:    decimal.NewFromInt(4),
		ShortQuantity:  3,
	}

	event := NewStockAlertEvent("run-1", row)
	if event == nil {
		t.Fatal("Expected an event for a breach row")
	}
	if event.Type() != SafetyBreachDetectedEvent {
		t.Errorf("Expected %s, got %s", SafetyBreachDetectedEvent, event.Type())
	}
	if alert := event.Data().(StockAlert); alert.ShortQuantity != 3 || alert.RunID != "run-1" {
		t.Errorf("Unexpected alert payload: %+v", alert)
	}

	row.Status = entities.StatusOK
	if NewStockAlertEvent("run-1", row) != nil {
		t.Error("Expected no event for an OK row")
	}
}
