package racf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBufferCompose(t *testing.T) {
	sb := NewSecretBuffer(8)
	sb.WriteString("ALTUSER JOE PASSWORD(")
	sb.Write([]byte("S3CRET"))
	sb.WriteString(")")

	assert.Equal(t, "ALTUSER JOE PASSWORD(S3CRET)", string(sb.Bytes()))
	assert.Equal(t, 28, sb.Len())
	assert.False(t, sb.Wiped())

	sb.Wipe()
	assert.True(t, sb.Wiped())
	assert.Zero(t, sb.Len())
}

func TestSecretBufferWipeOverwritesBackingArray(t *testing.T) {
	sb := NewSecretBuffer(16)
	sb.Write([]byte("PASSW0RD"))
	view := sb.Bytes()

	sb.Wipe()
	assert.Equal(t, "********", string(view))

	// Second wipe is a no-op.
	sb.Wipe()
	assert.True(t, sb.Wiped())
}

func TestSecretBufferGrowWipesOldArray(t *testing.T) {
	sb := NewSecretBuffer(4)
	sb.Write([]byte("ABCD"))
	old := sb.Bytes()

	sb.WriteString("EFGH")
	assert.Equal(t, "****", string(old))
	assert.Equal(t, "ABCDEFGH", string(sb.Bytes()))
}

func TestWithSecret(t *testing.T) {
	var view []byte

	err := WithSecret(16, func(sb *SecretBuffer) error {
		sb.Write([]byte("TOPSECRET"))
		view = sb.Bytes()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "*********", string(view))
}

func TestWithSecretWipesOnError(t *testing.T) {
	var view []byte
	boom := errors.New("send failed")

	err := WithSecret(16, func(sb *SecretBuffer) error {
		sb.Write([]byte("TOPSECRET"))
		view = sb.Bytes()
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, bytes.Contains(view, []byte("TOPSECRET")))
}

func TestWithSecretWipesOnPanic(t *testing.T) {
	var view []byte

	assert.Panics(t, func() {
		_ = WithSecret(16, func(sb *SecretBuffer) error {
			sb.Write([]byte("TOPSECRET"))
			view = sb.Bytes()
			panic("terminal gone")
		})
	})
	assert.Equal(t, "*********", string(view))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "PASSWORD(********) OK", Redact("PASSWORD(PW1) OK", []byte("PW1")))
	assert.Equal(t, "unchanged", Redact("unchanged", nil))
}

func TestNilSecretBufferWipe(t *testing.T) {
	var sb *SecretBuffer
	assert.NotPanics(t, sb.Wipe)
}
