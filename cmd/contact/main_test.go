package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/portfolio/internal/domain"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSend_Success(t *testing.T) {
	got := make(chan domain.Submission, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub domain.Submission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		got <- sub
		json.NewEncoder(w).Encode(domain.Succeeded())
	}))
	defer srv.Close()

	out, err := execute(t, "Hello\nthere\n", "send", "--url", srv.URL,
		"--email", "jane@example.com", "--name", "Jane", "--message", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully sent your submission!")

	sub := <-got
	assert.Equal(t, domain.Submission{Email: "jane@example.com", Name: "Jane", Message: "Hello\nthere"}, sub)
}

func TestSend_InvalidFieldsAreNotPosted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	_, err := execute(t, "", "send", "--url", srv.URL, "--email", "nope", "--name", "Jane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"email" must be a valid email`)
	assert.Contains(t, err.Error(), `"message" is not allowed to be empty`)
}

func TestSend_ServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(domain.Failed("Too many requests, please try again later."))
	}))
	defer srv.Close()

	_, err := execute(t, "", "send", "--url", srv.URL,
		"--email", "jane@example.com", "--name", "Jane", "--message", "Hi")
	require.Error(t, err)
	assert.Equal(t, "Too many requests, please try again later.", err.Error())
}
