package servers

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestCipherRoundTrip(t *testing.T) {
	c := NewCipher("")
	enc, err := c.Encrypt("s3cret, \"quoted\"")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !IsEncrypted(enc) {
		t.Errorf("Expected %q prefix, got %q", EncryptedPrefix, enc)
	}
	if strings.Contains(enc, "s3cret") {
		t.Error("Expected the password to be hidden")
	}

	plain, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plain != "s3cret, \"quoted\"" {
		t.Errorf("Expected original password, got %q", plain)
	}

	again, err := c.Encrypt("s3cret, \"quoted\"")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if again == enc {
		t.Error("Expected a fresh salt and nonce per value")
	}
}

func TestCipherWrongPassphrase(t *testing.T) {
	enc, err := NewCipher("one").Encrypt("pw")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := NewCipher("two").Decrypt(enc); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Expected ErrDecrypt, got %v", err)
	}
	if _, err := NewCipher("one").Decrypt(EncryptedPrefix + "!!!"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Expected ErrDecrypt for bad base64, got %v", err)
	}
}

func TestCipherPlainPassthrough(t *testing.T) {
	got, err := NewCipher("").Decrypt("plain")
	if err != nil || got != "plain" {
		t.Errorf("Expected plain value unchanged, got %q (%v)", got, err)
	}
}

func TestReadServers(t *testing.T) {
	data := "Name,URL,Username,Password\n" +
		"Live, https://crm.example.com ,admin,hunter2\n" +
		"Staging,https://staging.example.com\n" +
		"broken\n"

	reg, err := Read(strings.NewReader(data), NewCipher(""))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(all))
	}
	live, ok := reg.Get("live")
	if !ok {
		t.Fatal("Expected lookup to ignore case")
	}
	if live.URL != "https://crm.example.com" || live.Password != "hunter2" {
		t.Errorf("Unexpected server %+v", live)
	}
	staging, _ := reg.Get("Staging")
	if staging.Username != "" || staging.Password != "" {
		t.Errorf("Expected missing columns to be empty, got %+v", staging)
	}
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewCipher("pass")

	reg := NewRegistry()
	reg.Set(Server{Name: "Live", URL: "https://crm.example.com", Username: "admin", Password: "hunter2"})
	reg.Set(Server{Name: "Demo", URL: "https://demo.example.com", Username: "demo"})

	if err := Save(fs, "/servers.csv", reg, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := afero.ReadFile(fs, "/servers.csv")
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") {
		t.Error("Expected password to be encrypted on disk")
	}
	if !strings.HasPrefix(string(raw), "Name,URL,Username,Password\nDemo,") {
		t.Errorf("Expected header and sorted rows, got %q", string(raw))
	}

	loaded, err := Load(fs, "/servers.csv", c)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	live, ok := loaded.Get("Live")
	if !ok || live.Password != "hunter2" {
		t.Errorf("Expected decrypted password, got %+v", live)
	}
}

func TestLoadMissingFile(t *testing.T) {
	reg, err := Load(afero.NewMemMapFs(), "/nope.csv", NewCipher(""))
	if err != nil {
		t.Fatalf("Expected missing file to be an empty list, got %v", err)
	}
	if len(reg.All()) != 0 {
		t.Errorf("Expected empty registry, got %d", len(reg.All()))
	}
}

func TestRegistryDelete(t *testing.T) {
	reg := NewRegistry()
	reg.Set(Server{Name: "Live"})
	if !reg.Delete("LIVE") {
		t.Error("Expected delete to report the server existed")
	}
	if reg.Delete("Live") {
		t.Error("Expected second delete to report absence")
	}
}

func TestPromptComplete(t *testing.T) {
	var out bytes.Buffer
	p := &Prompt{In: strings.NewReader("https://crm.example.com\nadmin\nhunter2\n"), Out: &out}

	s, err := p.Complete(Server{Name: "Live"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if s.URL != "https://crm.example.com" || s.Username != "admin" || s.Password != "hunter2" {
		t.Errorf("Unexpected server %+v", s)
	}
	if strings.Contains(out.String(), "Name:") {
		t.Error("Expected no prompt for a field given up front")
	}
}

func TestPromptMissingURL(t *testing.T) {
	p := &Prompt{In: strings.NewReader("\n\n\n"), Out: &bytes.Buffer{}}
	if _, err := p.Complete(Server{Name: "Live"}); err == nil {
		t.Error("Expected error without a URL")
	}
}
