package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMessagesSent_Increments(t *testing.T) {
	before := testutil.ToFloat64(MessagesSent)
	MessagesSent.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MessagesSent))
}

func TestUnreadCacheLookups_Labels(t *testing.T) {
	before := testutil.ToFloat64(UnreadCacheLookups.WithLabelValues("hit"))
	UnreadCacheLookups.WithLabelValues("hit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(UnreadCacheLookups.WithLabelValues("hit")))
}

func TestCollectorsLint(t *testing.T) {
	problems, err := testutil.CollectAndLint(MessagesSent)
	assert.NoError(t, err)
	assert.Empty(t, problems)
}
