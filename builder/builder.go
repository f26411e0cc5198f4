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

package builder

import (
	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/normalize"
	"dirpx.dev/rsx/registry"
)

// New creates and returns a new instance of an apis.Builder.
func New() apis.Builder {
	return &builder{}
}

// builder is an empty struct to be used as a receiver for builder methods.
type builder struct{}

// BuildRegistry builds a registry sized by cfg.RegistrySize. If a previous
// registry is provided, its projections move into the new one; the previous
// registry is left empty without closing them. Projections beyond the new
// size are evicted and closed.
func (b *builder) BuildRegistry(cfg apis.Config, prev apis.Registry) apis.Registry {
	nreg := registry.New(cfg.RegistrySize)
	if prev == nil {
		return nreg
	}
	for _, e := range prev.Entries() {
		if s, ok := prev.Lookup(e.Key); ok {
			_ = nreg.Register(e.Key, s)
		}
	}
	if m, ok := prev.(interface{ Detach() }); ok {
		m.Detach()
	}
	return nreg
}

// BuildNormalizer returns the default normalization chain. Normalizers are
// stateless and read cfg per call, so prev is not reused.
func (b *builder) BuildNormalizer(_ apis.Config, _ apis.Normalizer) apis.Normalizer {
	return normalize.Default()
}
