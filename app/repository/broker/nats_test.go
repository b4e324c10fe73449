package broker

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	natsserver "github.com/nats-io/nats-server/v2/test"

	"inventory-sync-service/app/domain"
)

func TestNatsChannel(t *testing.T) {
	runChannelSuite(t, func(c *qt.C) domain.SyncChannel {
		opts := natsserver.DefaultTestOptions
		opts.Port = -1
		server := natsserver.RunServer(&opts)
		c.Cleanup(server.Shutdown)

		conn, err := NewNatsConn(server.ClientURL(), "inventory-sync-test")
		c.Assert(err, qt.IsNil)
		ch := NewNatsChannel(conn)
		c.Cleanup(func() { ch.Close() })
		return ch
	})
}

func TestNatsChannelUnreachableServer(t *testing.T) {
	c := qt.New(t)
	conn, err := NewNatsConn("nats://127.0.0.1:1", "inventory-sync-test")
	c.Assert(err, qt.IsNil)
	defer conn.Close()
	ch := NewNatsChannel(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Assert(ch.CreateTopic(ctx, testTopic), qt.ErrorMatches, `creating topic "inventory_updates": .*`)
}
