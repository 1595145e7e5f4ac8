//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"
)

const usBaseURL = "http://127.0.0.1:8080/api/v1/users"

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     []string        `json:"errors"`
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, wantCode int) envelope {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantCode {
		t.Fatalf("%s %s: got %d want %d body=%s", method, url, resp.StatusCode, wantCode, string(data))
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v body=%s", method, url, err, string(data))
	}
	return env
}

func register(t *testing.T, client *http.Client, userName, email, password string, wantCode int) envelope {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("fullName", "Integration Test")
	_ = w.WriteField("userName", userName)
	_ = w.WriteField("email", email)
	_ = w.WriteField("password", password)
	fw, _ := w.CreateFormFile("avatar", "avatar.png")
	// Minimal PNG header is enough; content is never inspected.
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n fake image bytes"))
	_ = w.Close()

	req, _ := http.NewRequest(http.MethodPost, usBaseURL+"/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantCode {
		t.Fatalf("register: got %d want %d body=%s", resp.StatusCode, wantCode, string(data))
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("register: decode envelope: %v", err)
	}
	return env
}

func cookieValue(t *testing.T, client *http.Client, name string) string {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, usBaseURL, nil)
	for _, c := range client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestUserLifecycle(t *testing.T) {
	client := newClient(t)
	suffix := time.Now().UnixNano()
	userName := fmt.Sprintf("it-user-%d", suffix)
	email := fmt.Sprintf("it-%d@example.com", suffix)
	password := "integration secret"

	env := register(t, client, userName, email, password, http.StatusCreated)
	if !env.Success {
		t.Fatalf("register: success=false message=%s", env.Message)
	}

	var profile map[string]any
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("register: decode profile: %v", err)
	}
	for _, secret := range []string{"password", "refreshToken"} {
		if _, ok := profile[secret]; ok {
			t.Fatalf("register: %s leaked into response", secret)
		}
	}
	if profile["avatar"] == "" {
		t.Fatal("register: avatar url is empty")
	}

	// Same identity twice is a client error, not a server error.
	env = register(t, client, userName, email, password, http.StatusBadRequest)
	if env.Success {
		t.Fatal("duplicate register: expected success=false")
	}

	doJSON(t, client, http.MethodPost, usBaseURL+"/login", map[string]string{
		"userName": userName,
		"password": "wrong password",
	}, http.StatusUnauthorized)

	env = doJSON(t, client, http.MethodPost, usBaseURL+"/login", map[string]string{
		"userName": userName,
		"password": password,
	}, http.StatusOK)

	var loginData struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &loginData); err != nil {
		t.Fatalf("login: decode data: %v", err)
	}
	if loginData.AccessToken == "" {
		t.Fatal("login: accessToken missing from body")
	}
	if cookieValue(t, client, "accessToken") == "" || cookieValue(t, client, "refreshToken") == "" {
		t.Fatal("login: auth cookies not set")
	}

	doJSON(t, client, http.MethodGet, usBaseURL+"/get-user", nil, http.StatusOK)

	// Rotation: the refresh succeeds once, then the superseded token is dead.
	oldRefresh := cookieValue(t, client, "refreshToken")
	doJSON(t, client, http.MethodPost, usBaseURL+"/refresh-token", nil, http.StatusOK)
	newRefresh := cookieValue(t, client, "refreshToken")
	if newRefresh == oldRefresh {
		t.Fatal("refresh: token was not rotated")
	}

	stale := newClient(t)
	doJSON(t, stale, http.MethodPost, usBaseURL+"/refresh-token", map[string]string{
		"refreshToken": oldRefresh,
	}, http.StatusUnauthorized)

	accessToken := cookieValue(t, client, "accessToken")
	doJSON(t, client, http.MethodPost, usBaseURL+"/logout", nil, http.StatusOK)

	doJSON(t, stale, http.MethodPost, usBaseURL+"/refresh-token", map[string]string{
		"refreshToken": newRefresh,
	}, http.StatusUnauthorized)

	// Logout clears the slot but already-issued access tokens ride out
	// their own expiry.
	req, _ := http.NewRequest(http.MethodGet, usBaseURL+"/get-user", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	plain := &http.Client{Timeout: 10 * time.Second}
	resp, err := plain.Do(req)
	if err != nil {
		t.Fatalf("get-user after logout: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("get-user after logout: got %d want 200 body=%s", resp.StatusCode, string(body))
	}
}

func TestRefresh_NoToken(t *testing.T) {
	client := newClient(t)
	doJSON(t, client, http.MethodPost, usBaseURL+"/refresh-token", nil, http.StatusUnauthorized)
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	client := newClient(t)
	doJSON(t, client, http.MethodGet, usBaseURL+"/get-user", nil, http.StatusUnauthorized)
	doJSON(t, client, http.MethodPost, usBaseURL+"/logout", nil, http.StatusUnauthorized)
	doJSON(t, client, http.MethodPost, usBaseURL+"/change-password", nil, http.StatusUnauthorized)
}
