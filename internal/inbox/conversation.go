package inbox

import "github.com/welldanyogia/seatea-inbox/internal/models"

// Partner is the display identity of the other participant
type Partner struct {
	ID    uint
	Name  string
	Email string
	Role  string
}

// Conversation is either a RealConversation summarized by the server or a
// PendingConversation synthesized for a partner with no messages yet.
type Conversation interface {
	PartnerID() uint
	Partner() Partner
	isConversation()
}

// RealConversation wraps a server-provided summary
type RealConversation struct {
	Summary models.ConversationSummary
}

func (c RealConversation) PartnerID() uint { return c.Summary.PartnerID }

func (c RealConversation) Partner() Partner {
	return Partner{
		ID:    c.Summary.PartnerID,
		Name:  c.Summary.PartnerName,
		Email: c.Summary.PartnerEmail,
		Role:  c.Summary.PartnerRole,
	}
}

func (RealConversation) isConversation() {}

// PendingConversation is a placeholder opened from a deep link before any
// message exists. It is replaced by a RealConversation once a list reload
// contains the partner.
type PendingConversation struct {
	Stub Partner
}

func (c PendingConversation) PartnerID() uint { return c.Stub.ID }

func (c PendingConversation) Partner() Partner { return c.Stub }

func (PendingConversation) isConversation() {}

// Real wraps summary as a Conversation
func Real(summary models.ConversationSummary) Conversation {
	return RealConversation{Summary: summary}
}

// Pending wraps a deep-link partner as a Conversation
func Pending(p Partner) Conversation {
	return PendingConversation{Stub: p}
}

// IsPending reports whether conv is a synthesized stub
func IsPending(conv Conversation) bool {
	_, ok := conv.(PendingConversation)
	return ok
}

// StartConversation is the deep-link payload handed to the inbox from
// another screen, such as a guide profile's "Message guide" action.
type StartConversation struct {
	PartnerID    uint
	PartnerName  string
	PartnerEmail string
	PartnerRole  string
}

func (s StartConversation) partner() Partner {
	return Partner{ID: s.PartnerID, Name: s.PartnerName, Email: s.PartnerEmail, Role: s.PartnerRole}
}
