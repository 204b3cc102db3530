package proxyclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/edx_grades", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "foo", user)
		assert.Equal(t, "bar", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "get-sections", r.FormValue("submit"))
		assert.Equal(t, "STELLAR:/project/mitxdemosite", r.FormValue("gradebook"))
		assert.Equal(t, "staff@example.com", r.FormValue("user"))

		_ = json.NewEncoder(w).Encode(Response{
			Msg:  "Successfully retrieved sections",
			Data: []any{map[string]any{"name": "Section 1"}},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithBasicAuth("foo", "bar")
	resp, err := client.GetSections(context.Background(), "STELLAR:/project/mitxdemosite", "staff@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Successfully retrieved sections", resp.Msg)
	require.Len(t, resp.Data, 1)
}

func TestGetMembership_SectionOptional(t *testing.T) {
	var gotSection []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSection = r.Form["section"]
		_ = json.NewEncoder(w).Encode(Response{Msg: "Successfully retrieved students", Data: []any{}})
	}))
	defer server.Close()

	client := New(server.URL).WithBasicAuth("foo", "bar")

	_, err := client.GetMembership(context.Background(), "gb", "staff@example.com", "")
	require.NoError(t, err)
	assert.Empty(t, gotSection)

	_, err = client.GetMembership(context.Background(), "gb", "staff@example.com", "Section 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Section 2"}, gotSection)
}

func TestPostGrades_SendsMultipart(t *testing.T) {
	csv := "email,grade\nstaff@example.com,0.5\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "post-grades", r.FormValue("submit"))

		file, _, err := r.FormFile("datafile")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		buf := make([]byte, len(csv))
		n, _ := file.Read(buf)
		assert.Equal(t, csv, string(buf[:n]))

		_ = json.NewEncoder(w).Encode(Response{Msg: "Successfully posted grades", Data: []any{}})
	}))
	defer server.Close()

	client := New(server.URL).WithBasicAuth("foo", "bar")
	resp, err := client.PostGrades(context.Background(), "gb", "staff@example.com", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, "Successfully posted grades", resp.Msg)
}

func TestAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="Login Required"`)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Could not verify your access level for that URL.\n"))
	}))
	defer server.Close()

	client := New(server.URL).WithBasicAuth("foo", "wrong")
	_, err := client.GetSections(context.Background(), "gb", "staff@example.com")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())
	assert.False(t, apiErr.IsValidationError())
}

func TestValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(Response{
			Msg:  `Malformed API Call: {user: ["Invalid email address."]}`,
			Data: []any{},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithBasicAuth("foo", "bar")
	_, err := client.GetSections(context.Background(), "gb", "bogus")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidationError())
	assert.Contains(t, apiErr.Message, "Malformed API Call")
}
