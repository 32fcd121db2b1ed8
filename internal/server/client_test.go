package server_test

import (
	"testing"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/stretchr/testify/require"
)

// TestClient_Send_Queues_Payload tests that Send places the payload on the
// send channel unchanged.
func TestClient_Send_Queues_Payload(t *testing.T) {
	req := require.New(t)
	client := server.NewClient(nil, nil, "127.0.0.1:1234")

	req.NoError(client.Send([]byte(`{"type":"userCount","count":1}`)))

	req.Equal([]byte(`{"type":"userCount","count":1}`), <-client.GetSendChan())
	req.Equal("127.0.0.1:1234", client.Addr())
	req.NotEmpty(client.ID())
}

// TestClient_IDs_Are_Unique tests that every client gets its own identity.
func TestClient_IDs_Are_Unique(t *testing.T) {
	a := server.NewClient(nil, nil, "a")
	b := server.NewClient(nil, nil, "b")

	require.NotEqual(t, a.ID(), b.ID())
}

// TestClient_Send_After_Close tests that a closed client refuses payloads
// and that Close is idempotent.
func TestClient_Send_After_Close(t *testing.T) {
	req := require.New(t)
	client := server.NewClient(nil, nil, "addr")
	req.True(client.IsOpen())

	req.NoError(client.Close())
	req.NoError(client.Close())

	req.False(client.IsOpen())
	err := client.Send([]byte("late"))
	req.ErrorIs(err, room.ErrConnClosed)
	req.ErrorIs(err, room.ErrSendFailed)

	_, ok := <-client.GetSendChan()
	req.False(ok)
}

// TestClient_Send_Buffer_Full tests that a full buffer fails the send
// without blocking and without closing the client.
func TestClient_Send_Buffer_Full(t *testing.T) {
	req := require.New(t)
	t.Cleanup(func() { server.SetConfig(nil) })
	cfg := server.NewConfig()
	cfg.SendBufferSize = 1
	server.SetConfig(cfg)

	client := server.NewClient(nil, nil, "addr")
	req.NoError(client.Send([]byte("first")))

	err := client.Send([]byte("second"))

	req.ErrorIs(err, room.ErrSendFailed)
	req.NotErrorIs(err, room.ErrConnClosed)
	req.True(client.IsOpen())
}
