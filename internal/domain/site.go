package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Status is the classified state of a site as persisted between runs.
type Status string

const (
	// StatusUnknown is what a site carries before its first run.
	StatusUnknown Status = ""
	StatusActive  Status = "active"
	StatusFailed  Status = "failed"
)

// IsFailed reports whether s is the failed state. Anything else, including
// StatusUnknown, counts as not failed for transition purposes.
func (s Status) IsFailed() bool { return s == StatusFailed }

var ErrMissingURL = errors.New("site url is required")

// Site is one monitored website as stored in the site list.
type Site struct {
	URL             string
	Name            string
	Enabled         bool
	ChannelWebhook  *string
	CurrentStatus   Status
	FailedTimestamp *int64

	// Extra holds keys this program does not know about. They are written
	// back exactly as they were read.
	Extra map[string]json.RawMessage

	src *source
}

// source is a record as it was decoded. While a site still matches it, the
// site is encoded in its original form: key order, nulls and, for YAML,
// tags and comments are kept.
type source struct {
	fields siteFields
	extra  map[string]json.RawMessage
	json   json.RawMessage
	yaml   *yaml.Node
}

// unchanged reports whether s can be written back as it was read.
func (s Site) unchanged() bool {
	if s.src == nil {
		return false
	}
	return s.fields().equal(s.src.fields) && sameExtra(s.Extra, s.src.extra)
}

// Webhook returns the per-site webhook override, if one is set.
func (s Site) Webhook() (string, bool) {
	if s.ChannelWebhook == nil || strings.TrimSpace(*s.ChannelWebhook) == "" {
		return "", false
	}
	return *s.ChannelWebhook, true
}

// Validate checks the fields a run cannot do without.
func (s Site) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return ErrMissingURL
	}
	if _, err := url.Parse(s.URL); err != nil {
		return fmt.Errorf("site url %q: %w", s.URL, err)
	}
	return nil
}

// ValidateAll validates every site and combines the failures, each tagged
// with the site's position in the list.
func ValidateAll(sites []Site) error {
	var err error
	for i, s := range sites {
		if e := s.Validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("site %d (%s): %w", i, s.Name, e))
		}
	}
	return err
}

// Clone returns a deep copy, so that updating the copy never touches s.
func (s Site) Clone() Site {
	out := s
	if s.ChannelWebhook != nil {
		v := *s.ChannelWebhook
		out.ChannelWebhook = &v
	}
	if s.FailedTimestamp != nil {
		v := *s.FailedTimestamp
		out.FailedTimestamp = &v
	}
	out.Extra = copyExtra(s.Extra)
	return out
}

func copyExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func sameExtra(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

// siteFields is the on-disk shape of the known keys. Key names follow the
// original site list file, which mixes camel and snake case.
type siteFields struct {
	URL             string  `json:"url" yaml:"url"`
	Name            string  `json:"name" yaml:"name"`
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	ChannelWebhook  *string `json:"channel_webhook,omitempty" yaml:"channel_webhook,omitempty"`
	CurrentStatus   Status  `json:"currentStatus,omitempty" yaml:"currentStatus,omitempty"`
	FailedTimestamp *int64  `json:"failed_timestamp,omitempty" yaml:"failed_timestamp,omitempty"`
}

var knownKeys = map[string]struct{}{
	"url":              {},
	"name":             {},
	"enabled":          {},
	"channel_webhook":  {},
	"currentStatus":    {},
	"failed_timestamp": {},
}

func (s Site) fields() siteFields {
	return siteFields{
		URL:             s.URL,
		Name:            s.Name,
		Enabled:         s.Enabled,
		ChannelWebhook:  s.ChannelWebhook,
		CurrentStatus:   s.CurrentStatus,
		FailedTimestamp: s.FailedTimestamp,
	}
}

func (f siteFields) clone() siteFields {
	if f.ChannelWebhook != nil {
		v := *f.ChannelWebhook
		f.ChannelWebhook = &v
	}
	if f.FailedTimestamp != nil {
		v := *f.FailedTimestamp
		f.FailedTimestamp = &v
	}
	return f
}

func (f siteFields) equal(g siteFields) bool {
	return f.URL == g.URL &&
		f.Name == g.Name &&
		f.Enabled == g.Enabled &&
		f.CurrentStatus == g.CurrentStatus &&
		samePtr(f.ChannelWebhook, g.ChannelWebhook) &&
		samePtr(f.FailedTimestamp, g.FailedTimestamp)
}

func samePtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Site) setFields(f siteFields) {
	s.URL = f.URL
	s.Name = f.Name
	s.Enabled = f.Enabled
	s.ChannelWebhook = f.ChannelWebhook
	s.CurrentStatus = f.CurrentStatus
	s.FailedTimestamp = f.FailedTimestamp
}

func (s *Site) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var f siteFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Site{}
	s.setFields(f)
	for k, v := range raw {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = v
	}
	s.src = &source{
		fields: f.clone(),
		extra:  copyExtra(s.Extra),
		json:   append(json.RawMessage(nil), b...),
	}
	return nil
}

// MarshalJSON writes an unchanged record exactly as it was read. Otherwise
// the known keys come first, then the extra keys in sorted order.
func (s Site) MarshalJSON() ([]byte, error) {
	if s.unchanged() && s.src.json != nil {
		return s.src.json, nil
	}
	known, err := marshalNoEscape(s.fields())
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1]) // drop the closing brace
	for _, k := range sortedKeys(s.Extra) {
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(s.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
