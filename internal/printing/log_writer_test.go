package printing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2021, 3, 4, 13, 14, 15, 16000000, time.UTC)
}

func Test_LogWriter_Write(t *testing.T) {
	var b bytes.Buffer
	tested := NewLogWriter(&b)
	line := []byte("  > ok  \texample.com/shop/cart\n")
	n, err := tested.Write(line)
	require.NoError(t, err)
	require.Equal(t, len(line), n)
	require.Equal(t, "  > ok  \texample.com/shop/cart\n", b.String())
}

func Test_LogWriter_Write_errorIgnored(t *testing.T) {
	tested := NewLogWriter(errorWriter{n: 2})
	n, err := tested.Write([]byte("lost"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func Test_LogWriter_Logf(t *testing.T) {
	var b bytes.Buffer
	tested := NewLogWriter(&b)
	tested.now = fixedNow
	tested.Logf("Running %q", "go")
	require.Equal(t, "13:14:15.016 Running \"go\"\n", b.String())
}

func Test_LogWriter_Logf_multiline(t *testing.T) {
	var b bytes.Buffer
	tested := NewLogWriter(&b)
	tested.now = fixedNow
	tested.Logf("Command failed: %s\n", "exit status 2\nFAIL")
	require.Equal(t, "13:14:15.016 Command failed: exit status 2\n"+logIndent+"FAIL\n", b.String())
}
