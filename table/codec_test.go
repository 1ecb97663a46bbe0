package table

import (
	"testing"

	"github.com/hatlonely/schemax/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumCodec_Mapping(t *testing.T) {
	c, err := NewEnumCodec(schema.Codes(schema.Code("A", 1), schema.Code("B", 2)))
	require.NoError(t, err)

	code, err := c.Encode("A")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), code)

	label, err := c.Decode(2)
	assert.NoError(t, err)
	assert.Equal(t, "B", label)

	_, err = c.Encode("C")
	assert.True(t, errors.Is(err, ErrUnknownEnumValue))
	_, err = c.Decode(3)
	assert.True(t, errors.Is(err, ErrUnknownEnumValue))

	assert.Equal(t, []string{"A", "B"}, c.Labels())
	assert.Equal(t, []schema.EnumCode{{Label: "A", Code: 1}, {Label: "B", Code: 2}}, c.Codes())
}

func TestEnumCodec_Labels(t *testing.T) {
	c, err := NewEnumCodec(schema.Labels("Low", "High"))
	require.NoError(t, err)

	for i, label := range []string{"Low", "High"} {
		code, err := c.Encode(label)
		assert.NoError(t, err)
		assert.Equal(t, int64(i), code)

		decoded, err := c.Decode(code)
		assert.NoError(t, err)
		assert.Equal(t, label, decoded)
	}
}

func TestEnumCodec_Invalid(t *testing.T) {
	_, err := NewEnumCodec(nil)
	assert.True(t, errors.Is(err, schema.ErrInvalidEnum))

	_, err = NewEnumCodec(schema.Codes(schema.Code("A", 1), schema.Code("B", 1)))
	assert.True(t, errors.Is(err, schema.ErrInvalidEnum))

	_, err = NewEnumCodec(schema.Labels("A", "A"))
	assert.True(t, errors.Is(err, schema.ErrInvalidEnum))
}
