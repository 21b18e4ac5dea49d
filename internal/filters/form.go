package filters

import (
	"net/url"
	"strings"
)

// Form field names used by the panel fragments.
const (
	FieldQuery    = "q"
	FieldOpen     = "open"
	FieldExpanded = "expanded"
	fieldPrefix   = "f."
)

// FieldName returns the form field carrying the selection of a group.
func FieldName(groupID string) string { return fieldPrefix + groupID }

// ParseForm reads a Snapshot from posted form values.
func ParseForm(form url.Values) Snapshot {
	snap := Snapshot{
		Query:    form.Get(FieldQuery),
		Open:     form.Get(FieldOpen) == "true",
		Expanded: nonEmpty(form[FieldExpanded]),
		Active:   Selection{},
	}
	for key, values := range form {
		if !strings.HasPrefix(key, fieldPrefix) {
			continue
		}
		id := strings.TrimPrefix(key, fieldPrefix)
		if v := nonEmpty(values); id != "" && len(v) > 0 {
			snap.Active[id] = v
		}
	}
	return snap
}

// Values encodes s as form values, the inverse of ParseForm.
func (s Snapshot) Values() url.Values {
	form := url.Values{}
	if s.Query != "" {
		form.Set(FieldQuery, s.Query)
	}
	if s.Open {
		form.Set(FieldOpen, "true")
	}
	for _, id := range s.Expanded {
		form.Add(FieldExpanded, id)
	}
	for _, id := range s.Active.GroupIDs() {
		for _, v := range s.Active[id] {
			form.Add(FieldName(id), v)
		}
	}
	return form
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
