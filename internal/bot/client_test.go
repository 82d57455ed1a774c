package bot_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vapord/internal/bot"
	"vapord/internal/config"
	"vapord/internal/logging"
	"vapord/internal/testsupport"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*bot.Client, *config.Config) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Telegram.BaseURL = server.URL
	return bot.NewClient(cfg, logging.NewNop()), cfg
}

func TestGetUpdatesParsesFeed(t *testing.T) {
	var gotPath string
	var gotOffset string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotOffset = r.PostFormValue("offset")
		io.WriteString(w, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":7,"username":"listener"},"chat":{"id":42},"text":"/vapor night drive"}}
		]}`)
	})

	updates, err := client.GetUpdates(context.Background(), 9, 30)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/bottest-token/getUpdates") {
		t.Fatalf("path = %s", gotPath)
	}
	if gotOffset != "9" {
		t.Fatalf("offset = %s", gotOffset)
	}
	if len(updates) != 1 {
		t.Fatalf("updates = %+v", updates)
	}
	update := updates[0]
	if update.UpdateID != 10 || update.Message == nil {
		t.Fatalf("update = %+v", update)
	}
	if update.Message.From.Username != "listener" || update.Message.Chat.ID != 42 {
		t.Fatalf("message = %+v", update.Message)
	}
	if update.Message.Text != "/vapor night drive" {
		t.Fatalf("text = %q", update.Message.Text)
	}
}

func TestSendTextPostsMessage(t *testing.T) {
	var gotChatID, gotText string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotChatID = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	if err := client.SendText(42, "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if gotChatID != "42" || gotText != "hello" {
		t.Fatalf("chat_id = %s, text = %q", gotChatID, gotText)
	}
}

func TestSendAudioUploadsMultipart(t *testing.T) {
	var gotChatID, gotTitle string
	var gotAudio []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendAudio") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			io.WriteString(w, `{"ok":false,"description":"bad upload"}`)
			return
		}
		gotChatID = r.PostFormValue("chat_id")
		gotTitle = r.PostFormValue("title")
		file, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			gotAudio, _ = io.ReadAll(file)
			file.Close()
		}
		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	if err := client.SendAudio(42, "Synthwave Dreams", []byte("wav bytes")); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if gotChatID != "42" {
		t.Fatalf("chat_id = %s", gotChatID)
	}
	if gotTitle != bot.Fullwidth("Synthwave Dreams") {
		t.Fatalf("title = %q", gotTitle)
	}
	if string(gotAudio) != "wav bytes" {
		t.Fatalf("audio = %q", gotAudio)
	}
}

func TestCallSurfacesAPIRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	})

	err := client.SendText(42, "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v", err)
	}
}
