package amqp

import (
	"testing"
)

func TestPasswordResetMessageRoundTrip(t *testing.T) {
	msg := NewPasswordResetMessage("user@example.com", "http://localhost/reset-password?token=abc")
	if msg.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := PasswordResetMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Email != msg.Email || got.ResetLink != msg.ResetLink {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestPasswordResetMessageFromJSONInvalid(t *testing.T) {
	if _, err := PasswordResetMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
