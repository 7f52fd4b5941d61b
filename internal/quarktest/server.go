// Package quarktest runs an in-process query server that speaks the framed
// Quark protocol on a loopback port. Tests script its replies per request.
package quarktest

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"

	"quark/cli/internal/frame"
)

// Request is one decoded request frame as seen by the server.
type Request struct {
	Token string `json:"token"`
	Query string `json:"query"`
	Raw   []byte `json:"-"`
}

// Reply tells the server what to do after a request.
type Reply struct {
	// Payload is sent back as one well-formed frame.
	Payload []byte
	// Raw, when set, is written verbatim instead of Payload, so tests can send
	// truncated or otherwise broken frames.
	Raw []byte
	// Hangup closes the connection after writing Raw (if any) instead of a frame.
	Hangup bool
}

// Respond replies with payload as a well-formed frame.
func Respond(payload string) Reply { return Reply{Payload: []byte(payload)} }

// Hangup closes the connection without replying.
func Hangup() Reply { return Reply{Hangup: true} }

// RawThenHangup writes b verbatim and closes the connection.
func RawThenHangup(b []byte) Reply { return Reply{Raw: b, Hangup: true} }

// Handler produces the reply for one request.
type Handler func(req Request) Reply

// Server is a loopback query server.
type Server struct {
	listener net.Listener
	handler  Handler
	quit     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	requests []Request
}

// Start listens on a free loopback port and serves until the test ends.
func Start(tb testing.TB, handler Handler) *Server {
	tb.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("quarktest: listen: %v", err)
	}

	srv := &Server{
		listener: listener,
		handler:  handler,
		quit:     make(chan struct{}),
	}
	srv.serve()
	tb.Cleanup(srv.Stop)
	return srv
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Addr returns host:port.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) serve() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.quit:
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConnection(conn)
			}()
		}
	}()
}

func (s *Server) handleConnection(conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-s.quit:
			conn.Close()
		case <-done:
		}
	}()

	for {
		payload, err := frame.ReadFrame(conn, frame.DefaultLimits())
		if err != nil {
			return
		}

		req := Request{Raw: payload}
		_ = json.Unmarshal(payload, &req)

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		reply := s.handler(req)
		if len(reply.Raw) > 0 {
			if _, err := conn.Write(reply.Raw); err != nil {
				return
			}
		}
		if reply.Hangup {
			return
		}
		if len(reply.Raw) == 0 {
			if err := frame.WriteFrame(conn, reply.Payload, frame.DefaultLimits()); err != nil {
				return
			}
		}
	}
}

// Stop closes the listener and every open connection, then waits for the
// serving goroutines to exit. It is safe to call more than once.
func (s *Server) Stop() {
	select {
	case <-s.quit:
		return
	default:
	}
	close(s.quit)
	s.listener.Close()
	s.wg.Wait()
}
