// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStudio_ValidTypes(t *testing.T) {
	for _, typ := range []string{
		TypeSaveStorage,
		TypeLoadStorage,
		TypeAddKaleidoscope,
		TypeAddGradientVideo,
		TypeAddGradientImage,
		TypeGetSelectionImage,
	} {
		data, err := Encode(Envelope{Type: typ})
		require.NoError(t, err)

		env, err := DecodeStudio(data)
		require.NoError(t, err, "type %s", typ)
		assert.Equal(t, typ, env.Type)
	}
}

func TestDecodeStudio_UnknownType(t *testing.T) {
	data := []byte(`{"type":"resize-window"}`)
	_, err := DecodeStudio(data)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeStudio_RejectsHostTypes(t *testing.T) {
	// Reply types are not valid in the studio-to-host direction.
	data := []byte(`{"type":"storage-loaded","key":"cache"}`)
	_, err := DecodeStudio(data)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeHost_StorageLoaded(t *testing.T) {
	data := []byte(`{"type":"storage-loaded","key":"cache","value":{"playing":true}}`)
	env, err := DecodeHost(data)
	require.NoError(t, err)
	assert.Equal(t, TypeStorageLoaded, env.Type)
	assert.Equal(t, "cache", env.Key)
	assert.JSONEq(t, `{"playing":true}`, string(env.Value))
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := DecodeStudio([]byte("{not json"))
	assert.Error(t, err)
}

func TestEnvelope_OmitsEmptyFields(t *testing.T) {
	data, err := Encode(Envelope{Type: TypeGetSelectionImage})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 1, "only the type tag should be present")
}

func TestDataURI_RoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	uri := EncodeDataURI(MimePNG, payload)

	header, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64", header)
	assert.Equal(t, payload, data)
}

func TestDataURI_SplitsOnFirstComma(t *testing.T) {
	// A payload whose base64 text contains no comma, but a header that the
	// decoder must not try to interpret beyond the first comma.
	uri := "data:image/png;base64,aGVsbG8="
	_, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDataURI_NoComma(t *testing.T) {
	_, _, err := DecodeDataURI("data:image/png;base64")
	assert.Error(t, err)
}

func TestDataURI_BadBase64(t *testing.T) {
	_, _, err := DecodeDataURI("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestPipe_DeliversInOrder(t *testing.T) {
	pipe := NewPipe(8)
	defer pipe.Close()

	studio := pipe.Studio()
	host := pipe.Host()

	require.NoError(t, studio.Send(Envelope{Type: TypeLoadStorage, Key: "cache"}))
	require.NoError(t, studio.Send(Envelope{Type: TypeGetSelectionImage}))

	env, ok := host.Receive()
	require.True(t, ok)
	assert.Equal(t, TypeLoadStorage, env.Type)

	env, ok = host.Receive()
	require.True(t, ok)
	assert.Equal(t, TypeGetSelectionImage, env.Type)
}

func TestPipe_DropsWhenFull(t *testing.T) {
	pipe := NewPipe(1)
	defer pipe.Close()

	studio := pipe.Studio()
	require.NoError(t, studio.Send(Envelope{Type: TypeGetSelectionImage}))
	// Buffer full: send succeeds but the message is dropped.
	require.NoError(t, studio.Send(Envelope{Type: TypeLoadStorage}))

	env, ok := pipe.Host().Receive()
	require.True(t, ok)
	assert.Equal(t, TypeGetSelectionImage, env.Type)
}

func TestPipe_CloseUnblocksReceive(t *testing.T) {
	pipe := NewPipe(1)
	done := make(chan struct{})
	go func() {
		_, ok := pipe.Studio().Receive()
		assert.False(t, ok)
		close(done)
	}()
	pipe.Close()
	<-done
}

func TestPipe_SendAfterClose(t *testing.T) {
	pipe := NewPipe(1)
	pipe.Close()
	assert.NoError(t, pipe.Studio().Send(Envelope{Type: TypeGetSelectionImage}))
}
