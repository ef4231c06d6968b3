// Package nng publishes marker batches on a nanomsg PUB socket.
//
// Each message is the channel name, a NUL byte, and the JSON envelope.
// Subscribers filter by setting the subscription to the channel name plus
// NUL, or to the empty topic for every channel.
//
//	sub, _ := sub.NewSocket()
//	_ = sub.Dial("tcp://localhost:40899")
//	_ = sub.SetOption(mangos.OptionSubscribe, nng.Topic(transport.ChannelEdges))
package nng

import (
	"bytes"
	"context"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/transport"
)

// DefaultSendDeadline bounds a single send on a congested socket.
const DefaultSendDeadline = time.Second

// Publisher is a transport over a mangos PUB socket.
type Publisher struct {
	sock mangos.Socket
	seq  *transport.Sequencer
}

// Listen opens a PUB socket bound to addr, e.g. "tcp://0.0.0.0:40899".
func Listen(addr string) (*Publisher, error) {
	return open(addr, func(s mangos.Socket) error { return s.Listen(addr) })
}

// Dial opens a PUB socket connected to a listening broker or subscriber.
func Dial(addr string) (*Publisher, error) {
	return open(addr, func(s mangos.Socket) error { return s.Dial(addr) })
}

func open(addr string, attach func(mangos.Socket) error) (*Publisher, error) {
	if err := errors.ValidateEndpoint(addr); err != nil {
		return nil, err
	}
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "create pub socket")
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, DefaultSendDeadline); err != nil {
		_ = sock.Close()
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "set send deadline")
	}
	if err := attach(sock); err != nil {
		_ = sock.Close()
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "attach %s", addr)
	}
	return &Publisher{sock: sock, seq: transport.NewSequencer()}, nil
}

// Topic returns the subscription prefix selecting ch.
func Topic(ch transport.Channel) []byte {
	return append([]byte(ch), 0)
}

// Encode builds the wire message for an envelope.
func Encode(env transport.Envelope) ([]byte, error) {
	body, err := env.Encode()
	if err != nil {
		return nil, err
	}
	return append(Topic(env.Channel), body...), nil
}

// Decode splits a wire message into its envelope.
func Decode(msg []byte) (transport.Envelope, error) {
	i := bytes.IndexByte(msg, 0)
	if i < 0 {
		return transport.Envelope{}, errors.New(errors.ErrCodeInvalidInput, "message has no topic separator")
	}
	env, err := transport.DecodeEnvelope(msg[i+1:])
	if err != nil {
		return transport.Envelope{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode envelope")
	}
	if string(env.Channel) != string(msg[:i]) {
		return transport.Envelope{}, errors.New(errors.ErrCodeInvalidInput, "topic %q does not match channel %q", msg[:i], env.Channel)
	}
	return env, nil
}

// Publish sends one message. PUB sockets drop messages for slow peers
// rather than block, so a nil error does not imply delivery.
func (p *Publisher) Publish(ctx context.Context, ch transport.Channel, markers marker.Array) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Encode(p.seq.Next(ch, markers))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", ch)
	}
	if err := p.sock.Send(msg); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "send %s", ch)
	}
	return nil
}

// Close closes the socket.
func (p *Publisher) Close() error {
	return p.sock.Close()
}

var _ transport.Transport = (*Publisher)(nil)
