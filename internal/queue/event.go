// Package queue defines message payloads exchanged over the message broker.
package queue

// DonationReceivedEvent is published when a gift lands in the ledger. It
// carries enough for downstream consumers (thank-you workflows, analytics)
// to act without querying the primary database. ParticipantID 0 marks the
// anonymous bucket and DonorName is then "Anonymous".
type DonationReceivedEvent struct {
	ParticipantID  uint64  `json:"participant_id"`
	DonationNumber uint64  `json:"donation_number"`
	DonorName      string  `json:"donor_name"`
	Amount         float64 `json:"amount"`
	DonatedOn      string  `json:"donated_on"`
	Public         bool    `json:"public"` // true when captured via the public donate form
	ReceivedAt     string  `json:"received_at"`
}
