//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func TestUserCRUD(t *testing.T) {
	admin := adminClient(t)
	email := testutil.RandomEmail("crud")

	// Create
	resp, err := admin.POST("/api/v1/admin/users", map[string]string{
		"username": "crud-user",
		"email":    email,
		"password": "crud-password",
		"role":     "user",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data userPayload `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &created)
	require.NotEmpty(t, created.Data.ID)
	assert.Equal(t, email, created.Data.Email)
	assert.Equal(t, "user", created.Data.Role)

	// Duplicate email
	resp, err = admin.POST("/api/v1/admin/users", map[string]string{
		"username": "crud-dup",
		"email":    email,
		"password": "crud-password",
		"role":     "user",
	})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Get
	resp, err = admin.GET("/api/v1/admin/users/" + created.Data.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched struct {
		Data userPayload `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, created.Data.ID, fetched.Data.ID)

	// Update role; old password must stop working after a password change
	resp, err = admin.PUT("/api/v1/admin/users/"+created.Data.ID, map[string]string{
		"role":     "manager",
		"password": "rotated-password",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Data userPayload `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "manager", updated.Data.Role)

	loginResp, err := testutil.NewClient(baseURL).POST("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "crud-password",
	})
	require.NoError(t, err)
	_ = loginResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode, "old password rejected after rotation")

	rotated := testutil.NewClient(baseURL)
	rotated.LoginAs(t, email, "rotated-password")

	// Delete
	resp, err = admin.DELETE("/api/v1/admin/users/" + created.Data.ID)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = admin.GET("/api/v1/admin/users/" + created.Data.ID)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserLookup_InvalidID(t *testing.T) {
	admin := adminClient(t)

	resp, err := admin.GET("/api/v1/admin/users/42")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "malformed id is 400, not 404")
}
