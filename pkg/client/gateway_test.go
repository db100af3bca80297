package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayRejectsCanceledContext(t *testing.T) {
	gw := NewHTTPGateway("http://127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.List(ctx, "", "")
	require.ErrorIs(t, err, context.Canceled)

	_, err = gw.Get(ctx, "some-id")
	require.ErrorIs(t, err, context.Canceled)

	_, err = gw.Create(ctx, BookmarkInput{URL: "https://example.com"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = gw.Me(ctx)
	require.ErrorIs(t, err, context.Canceled)

	err = gw.Logout(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
