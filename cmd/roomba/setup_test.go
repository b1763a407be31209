package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/roomba/pkg/oi"
	"github.com/gwillem/roomba/pkg/robot"
)

func TestIdentify(t *testing.T) {
	cal := robot.DefaultCalibration()
	cal.StartDelayMs, cal.ModeDelayMs = 0, 0

	var buf bytes.Buffer
	r := robot.New(&buf, robot.WithCalibration(cal))
	require.NoError(t, identify(context.Background(), r))

	packets, err := oi.Decode(buf.Bytes())
	require.NoError(t, err)
	got := make([]string, len(packets))
	for i, p := range packets {
		got[i] = p.String()
	}

	stop := "89 00 00 00 00"
	assert.Equal(t, []string{
		"80", "84",
		"89 00 c8 00 01", "9d 00 54", stop,
		"89 00 c8 ff ff", "9d ff ac", stop,
		"89 ff 38 7f ff", "9c fe cf", stop,
	}, got)
	assert.Zero(t, r.Velocity())
}

func TestIdentifyNotStarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	r := robot.New(&buf)
	assert.Error(t, identify(ctx, r))
}
