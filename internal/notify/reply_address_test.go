package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReplyAddresses_DisabledWithoutDomain(t *testing.T) {
	assert.Nil(t, NewReplyAddresses("", "secret"))
}

func TestReplyAddresses_RoundTrip(t *testing.T) {
	r := NewReplyAddresses("Reply.SeaAndTea.lk", "secret")

	addr := r.Address(3, 7)
	assert.True(t, strings.HasPrefix(addr, "reply+3.7."))
	assert.True(t, strings.HasSuffix(addr, "@reply.seaandtea.lk"))

	replier, partner, err := r.Parse("<" + strings.ToUpper(addr) + ">")
	require.NoError(t, err)
	assert.Equal(t, uint(3), replier)
	assert.Equal(t, uint(7), partner)
}

func TestReplyAddresses_RejectsTampering(t *testing.T) {
	r := NewReplyAddresses("reply.seaandtea.lk", "secret")
	addr := r.Address(3, 7)

	tampered := strings.Replace(addr, "reply+3.7.", "reply+4.7.", 1)
	_, _, err := r.Parse(tampered)
	assert.ErrorIs(t, err, ErrInvalidReplyAddress)
}

func TestReplyAddresses_RejectsOtherSecret(t *testing.T) {
	a := NewReplyAddresses("reply.seaandtea.lk", "secret-a")
	b := NewReplyAddresses("reply.seaandtea.lk", "secret-b")

	_, _, err := b.Parse(a.Address(1, 2))
	assert.ErrorIs(t, err, ErrInvalidReplyAddress)
}

func TestReplyAddresses_RejectsMalformed(t *testing.T) {
	r := NewReplyAddresses("reply.seaandtea.lk", "secret")

	for _, addr := range []string{
		"",
		"ann@example.com",
		"reply+1.2@reply.seaandtea.lk",
		"reply+a.2.abcd@reply.seaandtea.lk",
		"reply+0.2.abcd@reply.seaandtea.lk",
		"reply+1.2.abcd@other.example.com",
	} {
		_, _, err := r.Parse(addr)
		assert.ErrorIs(t, err, ErrInvalidReplyAddress, addr)
	}
}
