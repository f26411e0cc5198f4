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

// Package client binds query and command projections to one HTTP backend.
//
// A Client composes the transport, configuration, normalizer, logger,
// metrics recorder and the registry of shared queries. Shared queries are
// created once per key and served to every caller of the same key:
//
//	c, err := client.NewFromConfig(config.NewConfig(
//		config.WithBaseURL("https://api.example.com"),
//		config.WithCache(true),
//	), nil)
//	items, err := client.Query[[]Item](c, "items", "/items")
//	add := client.Command[NewItem, Item](c, http.MethodPost, transport.Static[NewItem]("/items"),
//		command.WithInvalidates(c.Invalidator("items")))
//
// Commands are not shared; their owner closes them.
package client
