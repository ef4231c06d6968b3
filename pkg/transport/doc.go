// Package transport delivers marker batches to renderers.
//
// A visualizer publishes on five named [Channel]s. Each publish carries one
// [marker.Array]; renderers apply the batch in order, so a delete-all
// followed by adds replaces the channel's content atomically from the
// renderer's point of view.
//
// # Implementations
//
//   - [Memory] records batches for tests and one-shot CLI renders
//   - [Writer] prints JSON-lines [Envelope]s to an io.Writer
//   - [Fanout] publishes to several transports
//   - [Dedup] drops markers identical to what was last sent
//   - transport/nng publishes on a nanomsg PUB socket
//   - transport/redis publishes on Redis pub/sub and latches the last batch
//
// # Usage
//
//	pub, err := nng.Listen("tcp://0.0.0.0:40899")
//	if err != nil {
//	    return err
//	}
//	t := transport.NewDedup(pub, cache.NewMemoryCache(), transport.DedupOptions{})
//	defer t.Close()
//
//	err = t.Publish(ctx, transport.ChannelCentroids, markers)
package transport
