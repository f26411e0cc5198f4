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

package problem

import (
	"mime"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ContentType is the RFC 9457 media type for JSON problem details.
const ContentType = "application/problem+json"

// Detail is an RFC 9457 problem detail object. Only the members rsx uses
// are kept.
type Detail struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	// Errors holds the entries of the common "errors" extension member.
	Errors []FieldError
}

// FieldError is one entry of the "errors" extension member.
type FieldError struct {
	// Pointer is a JSON Pointer (or a parameter name) the error refers to.
	Pointer string
	Detail  string
}

// ParseDetail extracts a problem detail from body.
//
// Parsing is lenient: body must be a JSON object carrying at least a
// non-empty "title" or "detail" string; all other members are optional and
// mistyped members are ignored. Header is consulted only to reject bodies
// declared as something other than JSON.
func ParseDetail(header http.Header, body []byte) (Detail, bool) {
	if !jsonish(header) || !gjson.ValidBytes(body) {
		return Detail{}, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Detail{}, false
	}

	d := Detail{
		Type:     str(root.Get("type")),
		Title:    strings.TrimSpace(str(root.Get("title"))),
		Detail:   strings.TrimSpace(str(root.Get("detail"))),
		Instance: str(root.Get("instance")),
	}
	if s := root.Get("status"); s.Type == gjson.Number {
		d.Status = int(s.Int())
	}
	if d.Title == "" && d.Detail == "" {
		return Detail{}, false
	}

	if errs := root.Get("errors"); errs.IsArray() {
		errs.ForEach(func(_, v gjson.Result) bool {
			if fe, ok := fieldError(v); ok {
				d.Errors = append(d.Errors, fe)
			}
			return true
		})
	}
	return d, true
}

// Message renders "<title>: <detail>", or whichever part is present.
func (d Detail) Message() string {
	switch {
	case d.Title != "" && d.Detail != "":
		return d.Title + ": " + d.Detail
	case d.Title != "":
		return d.Title
	default:
		return d.Detail
	}
}

// Line renders one "errors" entry as "<pointer>: <detail>" or "<detail>".
func (fe FieldError) Line() string {
	if fe.Pointer == "" {
		return fe.Detail
	}
	return fe.Pointer + ": " + fe.Detail
}

func fieldError(v gjson.Result) (FieldError, bool) {
	if v.Type == gjson.String {
		msg := strings.TrimSpace(v.String())
		return FieldError{Detail: msg}, msg != ""
	}
	if !v.IsObject() {
		return FieldError{}, false
	}
	fe := FieldError{
		Pointer: firstString(v, "pointer", "parameter", "field", "name"),
		Detail:  firstString(v, "detail", "message", "title"),
	}
	return fe, fe.Detail != ""
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(str(v.Get(k))); s != "" {
			return s
		}
	}
	return ""
}

// str returns the value only when it is a JSON string.
func str(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

// jsonish accepts a missing content type, application/json and any +json
// suffix, including application/problem+json.
func jsonish(header http.Header) bool {
	ct := header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
