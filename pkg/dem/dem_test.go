package dem

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHexTo32(t *testing.T, s string) [KeySize]byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, KeySize)
	var out [KeySize]byte
	copy(out[:], b)
	return out
}

// TestHmac256CtrVector reproduces the published regression vector: the
// exact key, aad, and plaintext below must encrypt to the exact blob and
// mac below, and decrypt back to the plaintext.
func TestHmac256CtrVector(t *testing.T) {
	key := mustHexTo32(t, "5bfdfd7c814903f1311bebacfffa3c001cbeb1cbb3275baa9aafe21fadd9f396")
	aad := []byte("Mark Twain")
	plaintext := []byte("The difference between a Miracle and a Fact is exactly the difference between a mermaid and a seal.")

	wantBlob, err := hex.DecodeString("b0c4eee6fbd97a2fb86bbd1e0dafa47d2ce5c9e8975a50c2d9eae02ebede8fee6b6434e68584be475b89089fce4c451cbd4c0d6e00dbcae1241abaf237df2eccdd86b890d35e4e8ae9418386012891d8413483d64179ce1d7fe69ad25d546495df54a1")
	require.NoError(t, err)
	wantMAC, err := hex.DecodeString("5de3ffdd9d7a258e651ebdba7d80839df2e19ea40cd35b6e1b06375181a0c2f2")
	require.NoError(t, err)

	ct := Hmac256CtrEncrypt(key, plaintext, aad)
	assert.Equal(t, wantBlob, ct.Blob)
	assert.Equal(t, wantMAC, ct.MAC[:])

	got, err := Hmac256CtrDecrypt(key, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestHmac256CtrTamperedAADFailsMAC(t *testing.T) {
	key := mustHexTo32(t, "5bfdfd7c814903f1311bebacfffa3c001cbeb1cbb3275baa9aafe21fadd9f396")
	plaintext := []byte("hello world")
	ct := Hmac256CtrEncrypt(key, plaintext, []byte("Mark Twain"))
	ct.AAD = []byte("Samuel Clemens")

	_, err := Hmac256CtrDecrypt(key, ct)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAes256GcmRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	plaintext := []byte("a message worth authenticating")
	aad := []byte("context")

	ct, err := Aes256GcmEncrypt(key, plaintext, aad)
	require.NoError(t, err)

	got, err := Aes256GcmDecrypt(key, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	ct.AAD = []byte("different context")
	_, err = Aes256GcmDecrypt(key, ct)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
