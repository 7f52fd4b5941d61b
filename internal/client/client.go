// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package client is the entry point for talking to a Quark query server. A
// Client holds the access token and one framed transport; each Query sends a
// {"token", "query"} request and decodes the single response frame into a
// result.QueryResult.
//
// A Client carries one outstanding query at a time. The protocol has no
// request correlation, so callers must not share a Client across goroutines.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"

	"quark/cli/internal/dsn"
	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/result"
	"quark/cli/internal/transport"
)

// ErrNotConnected is returned by Query before Connect succeeded or after Close.
var ErrNotConnected = errors.New("client: not connected")

// Request is the JSON payload of a query frame.
type Request struct {
	Token string `json:"token"`
	Query string `json:"query"`
}

// NewRequest builds a request payload.
func NewRequest(token, query string) Request {
	return Request{Token: token, Query: query}
}

// Encode serializes the request to its JSON wire text.
func (r Request) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Dialer opens a transport to host:port.
type Dialer func(ctx context.Context, host string, port int) (*transport.Transport, error)

func defaultDialer(ctx context.Context, host string, port int) (*transport.Transport, error) {
	return transport.Dial(ctx, host, port)
}

// Client queries one server.
type Client struct {
	token  string
	host   string
	port   int
	dialer Dialer

	tr *transport.Transport
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the server host. Default: dsn.DefaultHost.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithPort sets the server port. Default: dsn.DefaultPort.
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithDialer replaces how the transport is opened.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New creates a client that authenticates with token. It does not connect.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:  token,
		host:   dsn.DefaultHost,
		port:   dsn.DefaultPort,
		dialer: defaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr is the configured host:port.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Connect opens the connection. Failures carry the ConnectionFailed kind.
// Calling Connect on a connected client replaces the previous connection.
func (c *Client) Connect(ctx context.Context) error {
	tr, err := c.dialer(ctx, c.host, c.port)
	if err != nil {
		if qerrors.KindOf(err) == "" {
			err = qerrors.Wrap(qerrors.ConnectionFailed, "connect to "+c.Addr(), err)
		}
		return err
	}
	if c.tr != nil {
		_ = c.tr.Close()
	}
	c.tr = tr
	return nil
}

// Query runs instruction on the server and returns the decoded result.
// Transport failures carry TransportFailed; undecodable responses carry
// MalformedResult.
func (c *Client) Query(ctx context.Context, instruction string) (result.QueryResult, error) {
	if c.tr == nil {
		return result.QueryResult{}, qerrors.Wrap(qerrors.TransportFailed, "query", ErrNotConnected)
	}

	payload, err := NewRequest(c.token, instruction).Encode()
	if err != nil {
		return result.QueryResult{}, qerrors.Wrap(qerrors.TransportFailed, "encode request", err)
	}

	response, err := c.tr.SendAndReceive(ctx, payload)
	if err != nil {
		return result.QueryResult{}, err
	}
	return result.DecodeString(response)
}

// Close closes the connection. The client can Connect again afterwards.
func (c *Client) Close() error {
	if c.tr == nil {
		return nil
	}
	err := c.tr.Close()
	c.tr = nil
	return err
}
