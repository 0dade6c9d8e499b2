package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

func TestCreateContentStore_Filesystem(t *testing.T) {
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateContentStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create filesystem content store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Type() != "filesystem" {
		t.Errorf("Expected filesystem store, got %q", store.Type())
	}
}

func TestCreateContentStore_Memory(t *testing.T) {
	store, err := CreateContentStore(context.Background(), &ContentConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("Failed to create memory content store: %v", err)
	}

	if store.Type() != "memory" {
		t.Errorf("Expected memory store, got %q", store.Type())
	}
}

func TestCreateContentStore_FilesystemMissingPath(t *testing.T) {
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{},
	}

	_, err := CreateContentStore(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateContentStore_S3RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		wantErr string
	}{
		{"missing bucket", map[string]any{"region": "us-east-1"}, "bucket is required"},
		{"missing region", map[string]any{"bucket": "files"}, "region is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateContentStore(context.Background(), &ContentConfig{Type: "s3", S3: tt.options}, nil)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateContentStore_UnknownType(t *testing.T) {
	_, err := CreateContentStore(context.Background(), &ContentConfig{Type: "ftp"}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "unknown content store type") {
		t.Errorf("Expected 'unknown content store type' error, got: %v", err)
	}
}

func TestCreateMetadataStore_Memory(t *testing.T) {
	ctx := context.Background()
	repo, err := CreateMetadataStore(ctx, &MetadataConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("Failed to create memory metadata store: %v", err)
	}
	defer func() { _ = repo.Close() }()

	if err := repo.Healthcheck(ctx); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestCreateMetadataStore_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := &MetadataConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "meta")},
	}

	repo, err := CreateMetadataStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create badger metadata store: %v", err)
	}
	defer func() { _ = repo.Close() }()

	saved, err := repo.Save(ctx, &metadata.FileEntry{Name: "a.txt", Path: "/", Owner: "alice", Size: 1})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected repository-assigned ID")
	}
}

func TestCreateMetadataStore_BadgerMissingPath(t *testing.T) {
	_, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "badger", Badger: map[string]any{}}, nil)
	if err == nil {
		t.Fatal("Expected error for missing db_path")
	}
	if !strings.Contains(err.Error(), "db_path is required") {
		t.Errorf("Expected 'db_path is required' error, got: %v", err)
	}
}

func TestCreateMetadataStore_PostgresMissingDSN(t *testing.T) {
	_, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "postgres", Postgres: map[string]any{}}, nil)
	if err == nil {
		t.Fatal("Expected error for missing dsn")
	}
	if !strings.Contains(err.Error(), "dsn is required") {
		t.Errorf("Expected 'dsn is required' error, got: %v", err)
	}
}

func TestCreateMetadataStore_UnknownType(t *testing.T) {
	_, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "unknown"}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "unknown metadata store type") {
		t.Errorf("Expected 'unknown metadata store type' error, got: %v", err)
	}
}

func TestCreateMetadataStore_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, typ := range []string{"memory", "badger"} {
		cfg := &MetadataConfig{Type: typ, Badger: map[string]any{"db_path": t.TempDir()}}
		if _, err := CreateMetadataStore(ctx, cfg, nil); err == nil {
			t.Errorf("%s: expected error with canceled context", typ)
		}
	}
}

func TestCreateContentStore_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &ContentConfig{Type: "filesystem", Filesystem: map[string]any{"path": t.TempDir()}}
	if _, err := CreateContentStore(ctx, cfg, nil); err == nil {
		t.Fatal("Expected error with canceled context")
	}
}

func TestCreateAuthResolver_JWT(t *testing.T) {
	cfg := &AuthConfig{Type: "jwt", JWT: JWTConfig{Secret: testSecret, Issuer: "dcdisk", TTL: time.Hour}}

	resolver, err := CreateAuthResolver(cfg)
	if err != nil {
		t.Fatalf("Failed to create JWT resolver: %v", err)
	}

	issuer, err := CreateJWTResolver(cfg)
	if err != nil {
		t.Fatalf("Failed to create JWT issuer: %v", err)
	}
	token, _, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	user, ok := resolver.UsernameFor(context.Background(), token)
	if !ok || user != "alice" {
		t.Errorf("Expected alice, got %q (ok=%v)", user, ok)
	}
}

func TestCreateAuthResolver_Static(t *testing.T) {
	cfg := &AuthConfig{Type: "static", Static: StaticAuthConfig{Tokens: map[string]string{"dev": "bob"}}}

	resolver, err := CreateAuthResolver(cfg)
	if err != nil {
		t.Fatalf("Failed to create static resolver: %v", err)
	}
	if user, ok := resolver.UsernameFor(context.Background(), "dev"); !ok || user != "bob" {
		t.Errorf("Expected bob, got %q (ok=%v)", user, ok)
	}
}

func TestCreateAuthResolver_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AuthConfig
	}{
		{"jwt without secret", AuthConfig{Type: "jwt"}},
		{"static without tokens", AuthConfig{Type: "static"}},
		{"unknown type", AuthConfig{Type: "ldap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateAuthResolver(&tt.cfg); err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestCreateAdapters(t *testing.T) {
	cfg := validConfig()

	adapters, err := CreateAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("CreateAdapters failed: %v", err)
	}
	if len(adapters) != 1 || adapters[0].Protocol() != "HTTP" {
		t.Fatalf("Expected one HTTP adapter, got %v", adapters)
	}

	cfg.HTTP.Enabled = false
	if _, err := CreateAdapters(cfg, nil); err == nil {
		t.Error("Expected error with no adapters enabled")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(validConfig())

	if result.Server != nil {
		t.Error("Expected no metrics server when disabled")
	}
	if result.Disk == nil || result.HTTP == nil || result.Content == nil || result.Metadata == nil {
		t.Error("Expected no-op collectors when disabled")
	}
}
