package digest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReader_KnownVectors(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		input     string
		want      string
	}{
		{"sha1 abc", SHA1, "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha1 empty", SHA1, "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"sha256 abc", SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reader(strings.NewReader(tc.input), tc.algorithm)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestReader_Deterministic(t *testing.T) {
	content := strings.Repeat("media bytes ", 1000)

	first, err := Reader(strings.NewReader(content), SHA1)
	require.NoError(t, err)
	second, err := Reader(strings.NewReader(content), SHA1)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestReader_UnsupportedAlgorithm(t *testing.T) {
	_, err := Reader(strings.NewReader("x"), "md5")
	require.Error(t, err)

	var de *DigestError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "md5", de.Algorithm)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReader_ReadFailure(t *testing.T) {
	_, err := Reader(failingReader{}, SHA1)
	require.Error(t, err)

	var de *DigestError
	require.True(t, errors.As(err, &de))
}
