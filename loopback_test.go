package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/sikradio/sik"
	"i4.energy/across/sikradio/sik/siktest"
)

func TestPingStats(t *testing.T) {
	var s pingStats
	assert.Zero(t, s.ratio())
	assert.Zero(t, s.average())

	s = pingStats{sent: 4, received: 3, total: 90 * time.Millisecond}
	assert.InDelta(t, 75.0, s.ratio(), 0.001)
	assert.Equal(t, 30*time.Millisecond, s.average())
}

func TestPing(t *testing.T) {
	fw := siktest.New()
	fw.Loopback = true
	a, out := newTestApp(t, fw, sik.ModeNormal)

	require.NoError(t, a.run(context.Background(), []string{"ping", "-duration", "10s", "-count", "3"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	for i, line := range lines[:3] {
		assert.Contains(t, line, "Delay:", "packet %d", i)
	}
	assert.Equal(t, "Received 3 of 3 packets (100.00%)", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "Average delay of "))
}

func TestPingWithoutPeer(t *testing.T) {
	fw := siktest.New()
	a, out := newTestApp(t, fw, sik.ModeNormal)

	require.NoError(t, a.run(context.Background(), []string{"ping", "-count", "2"}))
	assert.Equal(t,
		"0: Failed to receive data\n1: Failed to receive data\nReceived 0 of 2 packets (0.00%)\nAverage delay of 0s\n",
		out.String())
}

func TestPingRefusedInCommandMode(t *testing.T) {
	fw := siktest.New()
	a, _ := newTestApp(t, fw, sik.ModeCommand)

	_, err := a.radio.RadioVersion(context.Background())
	require.NoError(t, err)

	err = a.run(context.Background(), []string{"ping", "-count", "1"})
	assert.ErrorIs(t, err, sik.ErrCommandMode)
}

func TestPingBadFlag(t *testing.T) {
	a, _ := newTestApp(t, siktest.New(), sik.ModeNormal)
	assert.Error(t, a.run(context.Background(), []string{"ping", "-count", "many"}))
}

func TestEcho(t *testing.T) {
	fw := siktest.New()
	fw.Loopback = true
	a, _ := newTestApp(t, fw, sik.ModeNormal)

	_, err := a.radio.WriteData(context.Background(), []byte("hello\r\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, a.echo(ctx))
	// the loopback peer keeps returning the line, so it is echoed repeatedly
	assert.Greater(t, fw.Writes(), 1)
}
