package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const remoteVoice = `{
	"uuid": "55592656",
	"name": "Lucy",
	"default_language": "en-US",
	"api_support": {"sts": true, "tts": true},
	"component_status": {"text_to_speech": {"status": "ready"}},
	"dataset_url": null,
	"sample_count": 42
}`

func TestVoiceKeepsUnknownFields(t *testing.T) {
	var v Voice
	require.NoError(t, json.Unmarshal([]byte(remoteVoice), &v))

	assert.Equal(t, "55592656", v.UUID)
	assert.Equal(t, "Lucy", v.Name)
	assert.Equal(t, "en-US", v.DefaultLanguage)
	require.Len(t, v.Extra, 4)
	assert.NotContains(t, v.Extra, "uuid")
	assert.JSONEq(t, `{"sts": true, "tts": true}`, string(v.Extra["api_support"]))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, remoteVoice, string(data))
}

func TestVoiceWithoutUnknownFieldsHasNilExtra(t *testing.T) {
	var v Voice
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"a","name":"b","voice_type":"rapid"}`), &v))

	assert.Equal(t, Voice{UUID: "a", Name: "b", VoiceType: "rapid"}, v)
}

func TestTypedFieldsWinOverExtra(t *testing.T) {
	v := Voice{
		UUID:  "typed",
		Name:  "Lucy",
		Extra: map[string]json.RawMessage{"uuid": json.RawMessage(`"stale"`)},
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "typed", got["uuid"])
}

func TestProjectKeepsUnknownFields(t *testing.T) {
	raw := `{"uuid":"p1","name":"Demo","is_archived":false,"owner_uuid":"u9","clip_count":3}`

	var p Project
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.NotNil(t, p.IsArchived)
	assert.False(t, *p.IsArchived)
	assert.Len(t, p.Extra, 2)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
}

func TestDescriptorEncodeMsgpackIncludesExtra(t *testing.T) {
	var v Voice
	require.NoError(t, json.Unmarshal([]byte(remoteVoice), &v))

	data, err := msgpack.Marshal(v)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(data, &got))

	assert.Equal(t, "Lucy", got["name"])
	assert.Contains(t, got, "dataset_url")
	assert.Nil(t, got["dataset_url"])
	assert.EqualValues(t, 42, got["sample_count"])
	support, ok := got["api_support"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, support["tts"])
}

func TestResultCarriesDescriptorExtra(t *testing.T) {
	var v Voice
	require.NoError(t, json.Unmarshal([]byte(remoteVoice), &v))

	data, err := json.Marshal(Success(VoiceList{Voices: []Voice{v}, Page: 1, NumPages: 1, PageSize: 10}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"api_support"`)
	assert.Contains(t, string(data), `"component_status"`)
}
