package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const replyPrefix = "reply+"

var ErrInvalidReplyAddress = errors.New("invalid reply address")

// ReplyAddresses mints and verifies per-conversation reply addresses of the form
// reply+<replierID>.<partnerID>.<sig>@domain. The signature binds both ids so a
// recipient cannot post into someone else's conversation by editing the address.
type ReplyAddresses struct {
	domain string
	key    []byte
}

// NewReplyAddresses returns nil when domain is empty, which disables Reply-To.
func NewReplyAddresses(domain, secret string) *ReplyAddresses {
	if domain == "" {
		return nil
	}
	return &ReplyAddresses{domain: strings.ToLower(domain), key: []byte(secret)}
}

func (r *ReplyAddresses) Domain() string {
	return r.domain
}

// Address is where replierID should write to reach partnerID.
func (r *ReplyAddresses) Address(replierID, partnerID uint) string {
	return fmt.Sprintf("%s%d.%d.%s@%s", replyPrefix, replierID, partnerID, r.sign(replierID, partnerID), r.domain)
}

// Parse verifies addr and returns the ids it was minted for.
func (r *ReplyAddresses) Parse(addr string) (replierID, partnerID uint, err error) {
	addr = strings.Trim(strings.TrimSpace(addr), "<>")
	local, domain, ok := strings.Cut(strings.ToLower(addr), "@")
	if !ok || domain != r.domain || !strings.HasPrefix(local, replyPrefix) {
		return 0, 0, ErrInvalidReplyAddress
	}

	parts := strings.Split(strings.TrimPrefix(local, replyPrefix), ".")
	if len(parts) != 3 {
		return 0, 0, ErrInvalidReplyAddress
	}
	a, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || a == 0 {
		return 0, 0, ErrInvalidReplyAddress
	}
	b, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || b == 0 {
		return 0, 0, ErrInvalidReplyAddress
	}

	want := r.sign(uint(a), uint(b))
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return 0, 0, ErrInvalidReplyAddress
	}
	return uint(a), uint(b), nil
}

func (r *ReplyAddresses) sign(replierID, partnerID uint) string {
	mac := hmac.New(sha256.New, r.key)
	fmt.Fprintf(mac, "%d:%d", replierID, partnerID)
	return hex.EncodeToString(mac.Sum(nil)[:8])
}
