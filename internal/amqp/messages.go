package amqp

import (
	"encoding/json"
	"time"
)

// PasswordResetMessage is the mail job handed to the mailer worker. The
// worker only needs the recipient and the link; everything else stays in
// the database.
type PasswordResetMessage struct {
	Email     string    `json:"email"`
	ResetLink string    `json:"reset_link"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPasswordResetMessage(email, resetLink string) *PasswordResetMessage {
	return &PasswordResetMessage{
		Email:     email,
		ResetLink: resetLink,
		Timestamp: time.Now(),
	}
}

func (m *PasswordResetMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PasswordResetMessageFromJSON(data []byte) (*PasswordResetMessage, error) {
	var msg PasswordResetMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
