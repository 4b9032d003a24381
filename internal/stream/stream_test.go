package stream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/monitoring"
	"github.com/banshee-data/angle.report/internal/pose"
	"github.com/banshee-data/angle.report/internal/session"
	"github.com/banshee-data/angle.report/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, state *session.State) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterAngleStreamServer(srv, NewServer(state))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func newHandler(t *testing.T) *session.Handler {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })
	return session.NewHandler()
}

func TestLatest(t *testing.T) {
	h := newHandler(t)
	client := startServer(t, h.State)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Latest(ctx)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))

	h.HandleDetections(ctx, testutil.Detections(testutil.ConfidentPose()))
	r, err := client.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "visible", r.State)
	assert.True(t, r.HasSample)
	assert.Equal(t, 0, r.Index)
	assert.InDelta(t, 90, r.Sample.LeftElbow, 1e-9)
}

// produce keeps feeding batches until the watcher has seen one, since the
// server subscribes asynchronously.
func produce(ctx context.Context, h *session.Handler, batch []pose.Detection) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.HandleDetections(ctx, batch)
		}
	}
}

func TestWatch_VisibleOnly(t *testing.T) {
	h := newHandler(t)
	client := startServer(t, h.State)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := client.Watch(ctx, false)
	require.NoError(t, err)

	// occluded frames are filtered out
	h.HandleDetections(ctx, nil)

	prodCtx, stop := context.WithCancel(ctx)
	defer stop()
	go produce(prodCtx, h, testutil.Detections(testutil.ConfidentPose()))

	r, err := w.Recv()
	require.NoError(t, err)
	stop()
	assert.Equal(t, "visible", r.State)
	assert.True(t, r.HasSample)
	assert.True(t, r.Sample.Finite())
}

func TestWatch_IncludeOccluded(t *testing.T) {
	h := newHandler(t)
	client := startServer(t, h.State)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := client.Watch(ctx, true)
	require.NoError(t, err)

	prodCtx, stop := context.WithCancel(ctx)
	defer stop()
	go produce(prodCtx, h, nil)

	r, err := w.Recv()
	require.NoError(t, err)
	stop()
	assert.Equal(t, "occluded", r.State)
	assert.Equal(t, angles.MissingDetection.String(), r.Reason)
	assert.False(t, r.HasSample)
}

func TestReadingRoundTrip(t *testing.T) {
	in := Reading{
		State:     "visible",
		HasSample: true,
		Index:     7,
		Time:      time.Date(2025, 3, 4, 5, 6, 7, 8, time.UTC),
		Sample:    angles.Sample{LeftElbow: 90, RightElbow: 45.5, LeftKnee: 170, RightKnee: 12},
	}
	st, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeReading(st)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	occ := Reading{State: "occluded", Reason: "low_keypoint_confidence", Part: "leftWrist"}
	st, err = occ.Encode()
	require.NoError(t, err)
	out, err = DecodeReading(st)
	require.NoError(t, err)
	assert.Equal(t, occ, out)
}
