// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"quark/cli/internal/client"
	"quark/cli/internal/keychain"
	"quark/cli/internal/logging"
	"quark/cli/internal/neterrors"
	"quark/cli/internal/servers"
)

// session is an open connection to one server.
type session struct {
	server servers.Server
	client *client.Client
}

// openStore loads the recent-servers list.
func openStore() (*servers.Store, *servers.List, error) {
	st, err := servers.DefaultStore()
	if err != nil {
		return nil, nil, err
	}
	list, err := st.Load()
	if err != nil {
		return nil, nil, err
	}
	return st, list, nil
}

// pickServer resolves arg (address, "#n" or "n") against the recent list.
// An empty arg means the configured host and port.
func pickServer(list *servers.List, arg string) (servers.Server, error) {
	if arg == "" {
		if s, ok := list.Find(settings.Host, settings.Port); ok {
			return s, nil
		}
		return servers.Server{Host: settings.Host, Port: settings.Port}, nil
	}
	s, _, err := list.Select(arg)
	return s, err
}

// resolveToken picks the token for srv: one given in the address or stored
// in the servers file, then --token/QUARK_TOKEN/config, then the keychain.
// An empty token is returned when none is known.
func resolveToken(srv servers.Server) string {
	if srv.Token != "" {
		return srv.Token
	}
	if settings.Token != "" {
		return settings.Token
	}
	km, err := keychain.GetManager()
	if err != nil {
		log.Debug("keychain unavailable", log.Args("error", err.Error()))
		return ""
	}
	tok, err := km.LoadToken(srv.Addr())
	if err != nil {
		if !errors.Is(err, keychain.ErrNotFound) {
			log.Debug("keychain lookup failed", log.Args("error", logging.Mask(err.Error())))
		}
		return ""
	}
	return tok
}

// openSession connects to srv, showing a spinner on w while dialing.
func openSession(ctx context.Context, w io.Writer, srv servers.Server, token string) (*session, error) {
	c := client.New(token, client.WithHost(srv.Host), client.WithPort(srv.Port))

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	log.Debug("connecting", log.Args("addr", srv.Addr()))
	stop := startSpinner(w, "connecting to "+srv.Addr())
	err := c.Connect(dialCtx)
	stop()
	if err != nil {
		return nil, neterrors.Present(err, "connecting to "+srv.Addr())
	}
	return &session{server: srv, client: c}, nil
}

// touch records srv as just used. Stored tokens are kept; tokens given on
// the command line are not written to the file.
func touch(st *servers.Store, list *servers.List, srv servers.Server) {
	entry, ok := list.Find(srv.Host, srv.Port)
	if !ok {
		entry = servers.Server{Host: srv.Host, Port: srv.Port}
	}
	entry.LastUsed = time.Now().UTC()
	list.Upsert(entry)
	if err := st.Save(list); err != nil {
		log.Warn("could not update recent servers", log.Args("error", err.Error()))
	}
}

// serverArg returns the optional first positional argument.
func serverArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
