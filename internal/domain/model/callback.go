package model

import "time"

// GatewayCallback is the raw notification received from the payment gateway.
type GatewayCallback struct {
	TransactionID string            `bson:"transaction_id" json:"transaction_id"`
	Outcome       string            `bson:"outcome" json:"outcome"`
	Payload       map[string]string `bson:"payload" json:"payload"`
	RemoteAddr    string            `bson:"remote_addr" json:"remote_addr"`
	ReceivedAt    time.Time         `bson:"received_at" json:"received_at"`
}
