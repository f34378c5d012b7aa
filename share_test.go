package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry_Duration(t *testing.T) {
	before := time.Now()

	got, err := parseExpiry("168h")
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(168*time.Hour), got, time.Minute)
}

func TestParseExpiry_RFC3339(t *testing.T) {
	got, err := parseExpiry("2026-12-24T18:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC), got.UTC())
}

func TestParseExpiry_CalendarDateSharesThroughEndOfDay(t *testing.T) {
	got, err := parseExpiry("2026-12-24")
	require.NoError(t, err)

	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 24, got.Day())
	assert.Equal(t, 23, got.Hour())
}

func TestParseExpiry_Invalid(t *testing.T) {
	_, err := parseExpiry("next tuesday")
	assert.Error(t, err)

	_, err = parseExpiry("")
	assert.Error(t, err)
}
