// Package servers keeps the list of recently used Quark servers in the XDG
// config dir. Entries are identified by (host, port); the list keeps the
// order in which servers were first added.
package servers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"quark/cli/internal/dsn"
	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/xdg"
)

// FileName is the recent-servers file in the XDG config dir.
const FileName = "servers.json"

// ErrOutOfRange is returned by At for a number outside the list.
var ErrOutOfRange = errors.New("no server with that number")

// Server is one remembered server. Token is only set when no OS keychain
// was available at connect time.
type Server struct {
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Token    string    `json:"token,omitempty"`
	LastUsed time.Time `json:"last_used,omitzero"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Is reports whether s is the server at host:port.
func (s Server) Is(host string, port int) bool {
	return s.Host == host && s.Port == port
}

// List is an ordered set of servers.
type List struct {
	Servers []Server `json:"servers"`
}

// Len returns the number of servers.
func (l *List) Len() int { return len(l.Servers) }

func (l *List) index(host string, port int) int {
	for i, s := range l.Servers {
		if s.Is(host, port) {
			return i
		}
	}
	return -1
}

// Find returns the server at host:port.
func (l *List) Find(host string, port int) (Server, bool) {
	if i := l.index(host, port); i >= 0 {
		return l.Servers[i], true
	}
	return Server{}, false
}

// Upsert replaces the entry matching s's host and port, or appends s.
// It reports whether an entry was replaced.
func (l *List) Upsert(s Server) bool {
	if i := l.index(s.Host, s.Port); i >= 0 {
		l.Servers[i] = s
		return true
	}
	l.Servers = append(l.Servers, s)
	return false
}

// Remove deletes the server at host:port and reports whether it was present.
func (l *List) Remove(host string, port int) bool {
	i := l.index(host, port)
	if i < 0 {
		return false
	}
	l.Servers = append(l.Servers[:i], l.Servers[i+1:]...)
	return true
}

// At returns the n-th server, counting from 1.
func (l *List) At(n int) (Server, error) {
	if n < 1 || n > len(l.Servers) {
		return Server{}, fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, n, len(l.Servers))
	}
	return l.Servers[n-1], nil
}

// Select picks a server by list number ("2" or "#2") or by address. An
// address that is not in the list yields a new Server and found == false.
func (l *List) Select(arg string) (s Server, found bool, err error) {
	arg = strings.TrimSpace(arg)
	if n, convErr := strconv.Atoi(strings.TrimPrefix(arg, "#")); convErr == nil {
		s, err = l.At(n)
		return s, err == nil, err
	}

	a, err := dsn.Parse(arg)
	if err != nil {
		return Server{}, false, qerrors.Wrap(qerrors.InvalidAddress, arg, err)
	}
	if s, ok := l.Find(a.Host, a.Port); ok {
		if a.Token != "" {
			s.Token = a.Token
		}
		return s, true, nil
	}
	return Server{Host: a.Host, Port: a.Port, Token: a.Token}, false, nil
}

// Store reads and writes a List as JSON.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store in the XDG config dir.
func DefaultStore() (*Store, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil, qerrors.Wrap(qerrors.StorageFailed, "config dir", err)
	}
	return NewStore(filepath.Join(dir, FileName)), nil
}

// Path returns the backing file path.
func (st *Store) Path() string { return st.path }

// Load reads the list; a missing file yields an empty list.
func (st *Store) Load() (*List, error) {
	var l List
	data, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &l, nil
		}
		return nil, qerrors.Wrap(qerrors.StorageFailed, "read "+st.path, err)
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, qerrors.Wrap(qerrors.StorageFailed, "parse "+st.path, err)
	}
	return &l, nil
}

// Save writes the list with 0600 permissions, since entries may hold tokens.
func (st *Store) Save(l *List) error {
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return qerrors.Wrap(qerrors.StorageFailed, "encode servers", err)
	}
	if err := os.WriteFile(st.path, b, 0o600); err != nil {
		return qerrors.Wrap(qerrors.StorageFailed, "write "+st.path, err)
	}
	return nil
}
