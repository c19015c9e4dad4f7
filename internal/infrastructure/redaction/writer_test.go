package redaction

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedactor(t *testing.T, patterns ...string) *Redactor {
	t.Helper()
	r, err := New(Config{Patterns: patterns, DisableGitleaks: true})
	require.NoError(t, err)
	return r
}

func TestWriter_WithRedactor(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newTestRedactor(t, `secret`))

	data := []byte("Connecting with secret credentials and keystorePass=12345\n")
	n, err := writer.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n, "should return original length")

	output := buf.String()
	assert.Contains(t, output, placeholder)
	assert.NotContains(t, output, "secret")
	assert.NotContains(t, output, "12345")
}

func TestWriter_WithoutRedactor(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, nil)

	data := []byte("This contains secret data")
	n, err := writer.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, string(data), buf.String())
	require.NoError(t, writer.Flush())
}

func TestWriter_SecretSplitAcrossWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newTestRedactor(t))

	for _, chunk := range []string{"signing with keyst", "orePass=hun", "ter2\nnext line"} {
		n, err := writer.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "signing with keystorePass=[REDACTED]\n", buf.String())

	require.NoError(t, writer.Flush())
	assert.Equal(t, "signing with keystorePass=[REDACTED]\nnext line", buf.String())
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestWriter_ThreadSafety(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newTestRedactor(t, `secret`))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = writer.Write([]byte("secret data\n"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, writer.Flush())

	output := buf.String()
	assert.NotContains(t, output, "secret data")
	assert.Equal(t, 1000, strings.Count(output, placeholder+" data\n"))
}

func TestWriter_EmptyWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf, newTestRedactor(t, `secret`))

	n, err := writer.Write([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, writer.Flush())
	assert.Equal(t, "", buf.String())
}
