package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)
	assert.Equal(t, Name, c.Name())
}

func TestCodecEmptyMessage(t *testing.T) {
	type empty struct{}

	b, err := Codec{}.Marshal(&empty{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	var got struct {
		Index int    `json:"index"`
		Value string `json:"value"`
	}
	require.NoError(t, Codec{}.Unmarshal([]byte(`{"index":3,"value":"12.5"}`), &got))
	assert.Equal(t, 3, got.Index)
	assert.Equal(t, "12.5", got.Value)
}
