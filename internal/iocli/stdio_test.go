package iocli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStdio(input string) (*Stdio, *bytes.Buffer) {
	var out bytes.Buffer
	s := NewStdioFrom(strings.NewReader(input), &out, -1)
	return s, &out
}

func TestStdio_ReadInput(t *testing.T) {
	s, out := newTestStdio("  0900000000 \n")

	result, err := s.ReadInput("Phone: ")
	require.NoError(t, err)
	assert.Equal(t, "0900000000", result)
	assert.Equal(t, "Phone: ", out.String())
}

func TestStdio_ReadInput_LastLineWithoutNewline(t *testing.T) {
	s, _ := newTestStdio("Admin")

	result, err := s.ReadInput("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "Admin", result)

	_, err = s.ReadInput("Name: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdio_ReadPassword_NotTerminal(t *testing.T) {
	s, out := newTestStdio("secret1\nsecret1\n")

	first, err := s.ReadPassword("Password: ")
	require.NoError(t, err)
	second, err := s.ReadPassword("Repeat: ")
	require.NoError(t, err)

	assert.Equal(t, "secret1", first)
	assert.Equal(t, "secret1", second)
	assert.Equal(t, "Password: Repeat: ", out.String())
}

func TestStdio_Print(t *testing.T) {
	s, out := newTestStdio("")

	s.Println("created", 7)
	s.Printf("id=%d\n", 7)

	assert.Equal(t, "created 7\nid=7\n", out.String())
}
