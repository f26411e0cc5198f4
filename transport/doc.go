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

// Package transport performs the HTTP calls behind projections.
//
// HTTP is the net/http implementation of apis.Transport. GetJSON and
// SendJSON adapt a transport into query and command fetchers that decode JSON
// and report failures with the problem package's error types, which the
// default normalizer understands:
//
//	tr := transport.NewHTTP(config.NewConfig(config.WithBaseURL("https://api.example.com")))
//	users := query.New(transport.GetJSON[[]User](tr, "/users"), query.WithCache(true))
//	create := command.New(transport.SendJSON[NewUser, User](tr, http.MethodPost, transport.Static[NewUser]("/users")))
package transport
