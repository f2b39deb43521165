package authgate

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type fakeFileStore struct {
	lastFilename    string
	lastContentType string
	lastContent     string
	fail            error
}

func (f *fakeFileStore) Upload(_ context.Context, filename, contentType string, content io.Reader) (Avatar, error) {
	if f.fail != nil {
		return Avatar{}, f.fail
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return Avatar{}, err
	}
	f.lastFilename = filename
	f.lastContentType = contentType
	f.lastContent = string(data)

	return Avatar{
		URL:       "https://cdn.example.com/" + filename,
		StorageID: "avatars/" + filename,
	}, nil
}

func TestUpdateAvatar(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	engine := newTestEngine(t, rdb, store, newRecordingMailer())
	files := &fakeFileStore{}
	engine.fileStore = files
	account := seedVerifiedAccount(t, engine, store, "a@x.com", "Password1!")
	ctx := context.Background()

	updated, err := engine.UpdateAvatar(ctx, account.ID, "me.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UpdateAvatar failed: %v", err)
	}
	if updated.Avatar.URL != "https://cdn.example.com/me.png" {
		t.Fatalf("unexpected avatar: %+v", updated.Avatar)
	}
	if files.lastContentType != "image/png" || files.lastContent != "png-bytes" {
		t.Fatal("upload did not receive the file content")
	}
	if store.get(t, account.ID).Avatar.StorageID != "avatars/me.png" {
		t.Fatal("avatar not persisted on the account")
	}
}

func TestUpdateAvatarRejections(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	engine := newTestEngine(t, rdb, store, newRecordingMailer())
	engine.fileStore = &fakeFileStore{}
	account := seedVerifiedAccount(t, engine, store, "a@x.com", "Password1!")
	ctx := context.Background()

	if _, err := engine.UpdateAvatar(ctx, "", "me.png", "image/png", strings.NewReader("x")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.UpdateAvatar(ctx, account.ID, "me.png", "image/png", nil); !errors.Is(err, ErrAvatarMissing) {
		t.Fatalf("expected ErrAvatarMissing, got %v", err)
	}

	engine.fileStore = nil
	if _, err := engine.UpdateAvatar(ctx, account.ID, "me.png", "image/png", strings.NewReader("x")); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
