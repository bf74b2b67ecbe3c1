package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/staybook/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuoteFlags(t *testing.T) {
	req, err := parseQuoteFlags("4f9c3c52-7d1e-4b8e-9a53-0a3b8f1c2d44", "2026-11-02", "2026-11-04", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "4f9c3c52-7d1e-4b8e-9a53-0a3b8f1c2d44", req.PropertyID.String())
	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), req.CheckIn)
	assert.Equal(t, 3, req.GuestCount)
	assert.Equal(t, 1, req.PetCount)

	_, err = parseQuoteFlags("cabin-7", "2026-11-02", "2026-11-04", 1, 0)
	assert.ErrorContains(t, err, "--property")

	_, err = parseQuoteFlags("4f9c3c52-7d1e-4b8e-9a53-0a3b8f1c2d44", "11/02/2026", "2026-11-04", 1, 0)
	assert.ErrorContains(t, err, "--check-in")
}

func TestAdminTokenCmd(t *testing.T) {
	secret := "cli-test-secret-0123456789abcdefghijkl"
	t.Setenv("JWT_SECRET_KEY", secret)
	t.Setenv("JWT_ISSUER", "staybook")
	t.Setenv("JWT_AUDIENCE", "staybook-admin")

	cmd := adminTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--admin-id", "42"})
	require.NoError(t, cmd.Execute())

	tokens, err := services.NewTokenService(time.Hour, "staybook", "staybook-admin", false, "", "", secret)
	require.NoError(t, err)
	claims, err := tokens.ValidateAdminToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AdminID)
}

func TestAdminTokenCmd_RequiresAdminID(t *testing.T) {
	cmd := adminTokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--admin-id", "0"})
	assert.Error(t, cmd.Execute())
}
