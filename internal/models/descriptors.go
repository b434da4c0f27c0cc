package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Remote descriptors. UUIDs are passed through as issued by the remote
// service. Fields without a typed home are kept in Extra and written back
// into the flat object, so callers see everything the remote API supplied.

type Voice struct {
	UUID               string   `json:"uuid" msgpack:"uuid"`
	Name               string   `json:"name" msgpack:"name"`
	Status             string   `json:"status,omitempty" msgpack:"status,omitempty"`
	DefaultLanguage    string   `json:"default_language,omitempty" msgpack:"default_language,omitempty"`
	SupportedLanguages []string `json:"supported_languages,omitempty" msgpack:"supported_languages,omitempty"`
	VoiceType          string   `json:"voice_type,omitempty" msgpack:"voice_type,omitempty"`
	CreatedAt          string   `json:"created_at,omitempty" msgpack:"created_at,omitempty"`
	UpdatedAt          string   `json:"updated_at,omitempty" msgpack:"updated_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-" msgpack:"-"`
}

type Project struct {
	UUID            string `json:"uuid" msgpack:"uuid"`
	Name            string `json:"name" msgpack:"name"`
	Description     string `json:"description,omitempty" msgpack:"description,omitempty"`
	IsCollaborative *bool  `json:"is_collaborative,omitempty" msgpack:"is_collaborative,omitempty"`
	IsArchived      *bool  `json:"is_archived,omitempty" msgpack:"is_archived,omitempty"`
	CreatedAt       string `json:"created_at,omitempty" msgpack:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty" msgpack:"updated_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-" msgpack:"-"`
}

// Method-free copies so the codecs below can use the default encoding.
type (
	voiceFields   Voice
	projectFields Project
)

var (
	voiceKeys = []string{
		"uuid", "name", "status", "default_language", "supported_languages",
		"voice_type", "created_at", "updated_at",
	}
	projectKeys = []string{
		"uuid", "name", "description", "is_collaborative", "is_archived",
		"created_at", "updated_at",
	}
)

func (v *Voice) UnmarshalJSON(data []byte) error {
	var fields voiceFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := extraFields(data, voiceKeys)
	if err != nil {
		return err
	}
	*v = Voice(fields)
	v.Extra = extra
	return nil
}

func (v Voice) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(voiceFields(v), v.Extra)
}

func (v Voice) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeWithExtra(enc, voiceFields(v), v.Extra)
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var fields projectFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := extraFields(data, projectKeys)
	if err != nil {
		return err
	}
	*p = Project(fields)
	p.Extra = extra
	return nil
}

func (p Project) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(projectFields(p), p.Extra)
}

func (p Project) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeWithExtra(enc, projectFields(p), p.Extra)
}

// extraFields returns the members of the JSON object data not named in known,
// or nil when there are none.
func extraFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalWithExtra encodes fields and adds each extra member the typed
// fields did not already produce.
func marshalWithExtra(fields interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

func encodeWithExtra(enc *msgpack.Encoder, fields interface{}, extra map[string]json.RawMessage) error {
	raw, err := msgpack.Marshal(fields)
	if err != nil {
		return err
	}
	merged := map[string]interface{}{}
	if err := msgpack.Unmarshal(raw, &merged); err != nil {
		return err
	}
	for k, v := range extra {
		if _, ok := merged[k]; ok {
			continue
		}
		value, err := decodeJSONValue(v)
		if err != nil {
			return fmt.Errorf("failed to convert field %q: %w", k, err)
		}
		merged[k] = value
	}
	return enc.Encode(merged)
}

// decodeJSONValue decodes raw keeping integers as integers.
func decodeJSONValue(raw json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []interface{}:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}
