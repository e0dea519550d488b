package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"bodegaclick/billing-service/internal/app/billing/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"hash-password without password", []string{"hash-password"}},
		{"hash-password unknown flag", []string{"hash-password", "-pw", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), tt.args, &out)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"help"}, &out))

	for name := range commands {
		assert.Contains(t, out.String(), name)
	}
}

func TestRun_HashPassword(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"hash-password", "-password", "s3cret"}, &out))

	hash := strings.TrimSpace(out.String())
	assert.True(t, util.CheckPassword("s3cret", hash))
	assert.False(t, util.CheckPassword("other", hash))
}
