package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(visitsOpened)
	IncVisitOpened()
	assert.Equal(t, before+1, testutil.ToFloat64(visitsOpened))

	IncRejection("open_visit", "LOCALITY_OCCUPIED")
	assert.Equal(t, float64(1), testutil.ToFloat64(rejections.WithLabelValues("open_visit", "LOCALITY_OCCUPIED")))

	IncCatchRecorded("Roe deer")
	assert.Equal(t, float64(1), testutil.ToFloat64(catchesRecorded.WithLabelValues("Roe deer")))
}
