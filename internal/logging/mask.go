// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides utilities for secure logging and error presentation.
// It includes functions for masking sensitive information in log messages and
// formatting errors for user-friendly display while protecting tokens.
//
// Query requests carry the access token in clear text, so anything that
// echoes a request, an address or an error goes through Mask first.
package logging

import (
	"regexp"
)

var (
	reJSONToken = regexp.MustCompile(`(?i)("token"\s*:\s*")((?:[^"\\]|\\.)*)(")`)
	reToken     = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reURLToken  = regexp.MustCompile(`(?i)(quark://)([^@/\s]+)(@)`) // quark://token@host
	rePassword  = regexp.MustCompile(`(?i)(password=)([^\s;]+)`)
)

// Mask replaces sensitive values in the input string with "***".
func Mask(s string) string {
	out := s
	out = reJSONToken.ReplaceAllString(out, "${1}***${3}")
	out = reToken.ReplaceAllString(out, "${1}***")
	out = reURLToken.ReplaceAllString(out, "${1}***${3}")
	out = rePassword.ReplaceAllString(out, "${1}***")
	return out
}
