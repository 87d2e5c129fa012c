package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubPush struct {
	messageID string
	err       error

	gotToken string
	gotTitle string
	gotBody  string
	gotData  map[string]string
}

func (s *stubPush) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	s.gotToken = token
	s.gotTitle = title
	s.gotBody = body
	s.gotData = data
	if s.err != nil {
		return "", s.err
	}
	return s.messageID, nil
}

func notificationRouter(push *stubPush) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/send-notification", NewNotificationHandler(push).SendNotification)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendNotificationSuccess(t *testing.T) {
	push := &stubPush{messageID: "projects/close/messages/123"}
	router := notificationRouter(push)

	w := postJSON(t, router, "/api/send-notification",
		`{"token":"device-1","title":"Hi","body":"There","data":{"type":"ping"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !resp.Success || resp.MessageID != "projects/close/messages/123" {
		t.Errorf("resp = %+v", resp)
	}
	if push.gotToken != "device-1" || push.gotTitle != "Hi" || push.gotBody != "There" {
		t.Errorf("send args = %q %q %q", push.gotToken, push.gotTitle, push.gotBody)
	}
	if push.gotData["type"] != "ping" {
		t.Errorf("data = %v", push.gotData)
	}
}

func TestSendNotificationDefaultsTitleAndBody(t *testing.T) {
	push := &stubPush{messageID: "m1"}
	router := notificationRouter(push)

	w := postJSON(t, router, "/api/send-notification", `{"token":"device-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if push.gotTitle != "Your person just pinged you 💖" {
		t.Errorf("title = %q", push.gotTitle)
	}
	if push.gotBody != "Someone is thinking of you!" {
		t.Errorf("body = %q", push.gotBody)
	}
}

func TestSendNotificationMissingToken(t *testing.T) {
	push := &stubPush{}
	router := notificationRouter(push)

	w := postJSON(t, router, "/api/send-notification", `{"title":"Hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["error"] != "Token is required" {
		t.Errorf("error = %q", resp["error"])
	}
	if push.gotToken != "" {
		t.Error("provider was called without a token")
	}
}

func TestSendNotificationProviderFailure(t *testing.T) {
	push := &stubPush{err: errors.New("registration-token-not-registered")}
	router := notificationRouter(push)

	w := postJSON(t, router, "/api/send-notification", `{"token":"stale-device"}`)
	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206: %s", w.Code, w.Body)
	}
	var resp struct {
		Success                         bool   `json:"success"`
		Error                           string `json:"error"`
		ShouldTriggerClientNotification bool   `json:"shouldTriggerClientNotification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Success || !resp.ShouldTriggerClientNotification {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Error != "registration-token-not-registered" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSendNotificationMalformedBody(t *testing.T) {
	router := notificationRouter(&stubPush{})

	w := postJSON(t, router, "/api/send-notification", `{"token":`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", w.Code, w.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["error"] != "Failed to send notification" || resp["details"] == "" {
		t.Errorf("resp = %v", resp)
	}
}
