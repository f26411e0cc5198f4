/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package logging builds the logrus entries projections log through.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
)

// Component is the value of the "component" field on every entry.
const Component = "rsx"

// New builds a logger from cfg.LogLevel and cfg.LogFormat writing to out
// (os.Stderr if nil) and returns its base entry.
func New(cfg apis.Config, out io.Writer) (*logrus.Entry, error) {
	if out == nil {
		out = os.Stderr
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return l.WithField("component", Component), nil
}

// Nop returns an entry that discards everything. It is the default of every
// projection so the library stays silent unless a logger is configured.
func Nop() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
