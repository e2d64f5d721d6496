package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestEncode(t *testing.T) {
	ev := Event{
		Type:       ExpenseRecorded,
		GroupID:    "g1",
		ActorID:    "u1",
		SubjectID:  "e1",
		Amount:     12.5,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}

	body, err := encode(ev)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	for _, key := range []string{"type", "group_id", "actor_id", "subject_id", "amount", "occurred_at"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing field %q in %s", key, body)
		}
	}
}

func TestEncode_OmitsEmptyOptionalFields(t *testing.T) {
	body, err := encode(Event{Type: GroupCreated, GroupID: "g1", ActorID: "u1"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var fields map[string]any
	json.Unmarshal(body, &fields)
	if _, ok := fields["amount"]; ok {
		t.Errorf("amount should be omitted: %s", body)
	}
	if _, ok := fields["subject_id"]; ok {
		t.Errorf("subject_id should be omitted: %s", body)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	r.Publish(ctx, Event{Type: GroupCreated})
	r.Publish(ctx, Event{Type: ExpenseRecorded})

	types := r.Types()
	if len(types) != 2 || types[0] != GroupCreated || types[1] != ExpenseRecorded {
		t.Errorf("Types() = %v", types)
	}
}

func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set")
	}
	p, err := NewAMQPPublisher(url, "expenseshare.test")
	if err != nil {
		t.Fatalf("NewAMQPPublisher failed: %v", err)
	}
	defer p.Close()

	err = p.Publish(context.Background(), Event{Type: GroupCreated, GroupID: "g1", OccurredAt: time.Now()})
	if err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}
