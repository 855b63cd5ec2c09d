// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package anyconvert

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category names shown to callers, "all" first.
var categoryList = []CategoryInfo{
	{ID: CategoryAll, Name: "All"},
	{ID: CategoryEncode, Name: "Encode / Decode"},
	{ID: CategoryHash, Name: "Hash"},
	{ID: CategoryData, Name: "Data Formats"},
	{ID: CategoryWeb, Name: "Web"},
	{ID: CategoryNumber, Name: "Numbers"},
	{ID: CategoryColor, Name: "Colors"},
	{ID: CategoryText, Name: "Text"},
	{ID: CategoryUtility, Name: "Utilities"},
	{ID: CategoryImage, Name: "Images"},
	{ID: CategoryMedia, Name: "Media"},
	{ID: CategoryDocument, Name: "Documents"},
}

// CategoryInfo is a selectable category.
type CategoryInfo struct {
	ID   Category `json:"id"`
	Name string   `json:"name"`
}

// Registry is the ordered, immutable converter catalog.
type Registry struct {
	units []Unit
	byID  map[string]Unit
}

// NewRegistry builds a registry from units in the given order and validates it.
func NewRegistry(units ...Unit) (*Registry, error) {
	r := &Registry{
		units: append([]Unit(nil), units...),
		byID:  make(map[string]Unit, len(units)),
	}
	for _, u := range r.units {
		if _, dup := r.byID[u.Meta().ID]; !dup {
			r.byID[u.Meta().ID] = u
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// BuildRegistry assembles the built-in catalog. The group order is the catalog order.
// It panics if the built-in catalog is inconsistent.
func BuildRegistry(env Env) *Registry {
	env = env.withDefaults()

	var units []Unit
	units = append(units, encodeUnits()...)
	units = append(units, hashUnits()...)
	units = append(units, dataUnits()...)
	units = append(units, webUnits()...)
	units = append(units, numberUnits()...)
	units = append(units, colorUnits()...)
	units = append(units, textUnits()...)
	units = append(units, utilityUnits(env)...)
	units = append(units, imageUnits(env)...)
	units = append(units, mediaUnits()...)
	units = append(units, documentUnits(env)...)

	r, err := NewRegistry(units...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every unit in catalog order.
func (r *Registry) All() []Unit {
	return append([]Unit(nil), r.units...)
}

// Len returns the number of units.
func (r *Registry) Len() int {
	return len(r.units)
}

// Categories returns the fixed category list, "all" first.
func (r *Registry) Categories() []CategoryInfo {
	return append([]CategoryInfo(nil), categoryList...)
}

// FindByID returns the unit with the given id or a *NotFoundError.
func (r *Registry) FindByID(id string) (Unit, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return u, nil
}

// FilterByCategory returns the units of one category in catalog order. CategoryAll
// returns every unit; an unknown category matches nothing.
func (r *Registry) FilterByCategory(c Category) []Unit {
	if c == CategoryAll {
		return r.All()
	}
	var out []Unit
	for _, u := range r.units {
		if u.Meta().Category == c {
			out = append(out, u)
		}
	}
	return out
}

var unitIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func knownCategories() []any {
	out := make([]any, 0, len(categoryList)-1)
	for _, c := range categoryList {
		if c.ID != CategoryAll {
			out = append(out, c.ID)
		}
	}
	return out
}

// Validate checks unit metadata and capability consistency across the catalog.
func (r *Registry) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(r.units))
	cats := knownCategories()

	for i, u := range r.units {
		m := u.Meta()
		err := validation.ValidateStruct(&m,
			validation.Field(&m.ID, validation.Required, validation.Match(unitIDPattern)),
			validation.Field(&m.Name, validation.Required),
			validation.Field(&m.Description, validation.Required),
			validation.Field(&m.Category, validation.Required, validation.In(cats...)),
		)
		if err != nil {
			problems = append(problems, fmt.Sprintf("unit #%d (%q): %v", i, m.ID, err))
		}
		if seen[m.ID] {
			problems = append(problems, fmt.Sprintf("unit #%d: duplicate id %q", i, m.ID))
		}
		seen[m.ID] = true

		_, isText := u.(TextConverter)
		if !isText && !AcceptsFile(u) {
			problems = append(problems, fmt.Sprintf("unit %q: %v", m.ID, ErrNoInvocation))
		}
		if m.HasTextInput && !AcceptsFile(u) {
			problems = append(problems, fmt.Sprintf("unit %q: auxiliary text input declared on a text-only unit", m.ID))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
