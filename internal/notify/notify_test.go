package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"agrovision-auth/internal/devotp"
)

func TestNewSMSLocalClient_Defaults(t *testing.T) {
	client := NewSMSLocalClient("api-key", "", "")
	if client.BaseURL != defaultSMSLocalURL {
		t.Errorf("BaseURL = %q, want default", client.BaseURL)
	}
	if client.HTTPClient == nil || client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("HTTPClient timeout not set to %v", defaultTimeout)
	}
	custom := NewSMSLocalClient("api-key", "https://sms.example/api", "AGROVN")
	if custom.BaseURL != "https://sms.example/api" || custom.Sender != "AGROVN" {
		t.Errorf("custom client = %+v", custom)
	}
}

func TestSMSLocalClient_Send(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewSMSLocalClient("test-api-key", server.URL, "AGROVN")
	if err := client.Send(context.Background(), "+911234567890", "004217"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if body["route"] != "otp" {
		t.Errorf("route = %v, want otp", body["route"])
	}
	if body["numbers"] != "911234567890" {
		t.Errorf("numbers = %v, want digits only", body["numbers"])
	}
	if body["variables"] != "004217" {
		t.Errorf("variables = %v, want zero-padded code", body["variables"])
	}
	if body["sender_id"] != "AGROVN" {
		t.Errorf("sender_id = %v", body["sender_id"])
	}
}

func TestSMSLocalClient_MissingAPIKey(t *testing.T) {
	err := NewSMSLocalClient("", "", "").Send(context.Background(), "1", "123456")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSMSLocalClient_Non200(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":"invalid request"}`))
		}))
		err := NewSMSLocalClient("k", server.URL, "").Send(context.Background(), "1", "123456")
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", code)
		}
		if !strings.Contains(err.Error(), "status=") || !strings.Contains(err.Error(), "invalid request") {
			t.Errorf("error = %q, want status and body", err.Error())
		}
	}
}

func TestSMSLocalClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := NewSMSLocalClient("k", server.URL, "").Send(ctx, "1", "123456"); err == nil {
		t.Fatal("expected error when context is done")
	}
}

func TestLogNotifier_LogsCode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewLogNotifier(logger)
	if err := n.Send(context.Background(), "+911", "123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want warning plus send", len(entries))
	}
	if entries[0].Level != logrus.WarnLevel {
		t.Errorf("first entry level = %v, want warn", entries[0].Level)
	}
	last := hook.LastEntry()
	if last.Data["code"] != "123456" || last.Message != "OTP sent to +911" {
		t.Errorf("entry = %q %v", last.Message, last.Data)
	}
}

func TestDevOTPNotifier_StoresAndForwards(t *testing.T) {
	store := devotp.NewMemoryStore()
	var forwarded string
	next := NotifierFunc(func(ctx context.Context, phone, code string) error {
		forwarded = phone + ":" + code
		return nil
	})
	n := NewDevOTPNotifier(next, store, 5*time.Minute)
	if err := n.Send(context.Background(), "+911", "654321"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if forwarded != "+911:654321" {
		t.Errorf("forwarded = %q", forwarded)
	}
	if code, ok := store.Get(context.Background(), "+911"); !ok || code != "654321" {
		t.Errorf("dev store = %q, %v", code, ok)
	}
}

func TestDevOTPNotifier_ForwardError(t *testing.T) {
	boom := errors.New("provider down")
	store := devotp.NewMemoryStore()
	n := NewDevOTPNotifier(NotifierFunc(func(context.Context, string, string) error { return boom }), store, time.Minute)
	if err := n.Send(context.Background(), "+911", "111111"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, ok := store.Get(context.Background(), "+911"); !ok {
		t.Error("code should be stored even when delivery fails")
	}
}
