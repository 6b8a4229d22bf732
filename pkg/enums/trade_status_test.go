package enums

import "testing"

func TestParseTradeStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    TradeStatus
		wantErr bool
	}{
		{raw: "Initiated", want: TradeStatusInitiated},
		{raw: "In Progress", want: TradeStatusInProgress},
		{raw: "Cancelled", want: TradeStatusCancelled},
		{raw: "cancelled", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTradeStatus(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTradeStatus(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestTradeStatusClassification(t *testing.T) {
	for _, status := range validTradeStatuses {
		if status.IsActive() == status.IsTerminal() {
			t.Fatalf("%s must be exactly one of active or terminal", status)
		}
	}
	if len(ActiveTradeStatuses) != 2 {
		t.Fatalf("expected two active statuses, got %d", len(ActiveTradeStatuses))
	}
}
