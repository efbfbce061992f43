package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/stockcast/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderLocal {
		t.Errorf("provider: got %s, want local", cfg.Provider)
	}
	if cfg.Root != "artifacts" {
		t.Errorf("root: got %s, want artifacts", cfg.Root)
	}
	if cfg.ContainerName != "artifacts" {
		t.Errorf("container_name: got %s, want artifacts", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PROVIDER", "azure")
	t.Setenv("TEST_CONTAINER", "models")
	t.Setenv("TEST_CONN", "override-connection")

	env := &storage.Env{
		Provider:         "TEST_PROVIDER",
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", cfg.Provider)
	}
	if cfg.ContainerName != "models" {
		t.Errorf("container_name: got %s, want models", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "azure missing connection_string",
			cfg:     storage.Config{Provider: storage.ProviderAzure},
			wantErr: "connection_string required",
		},
		{
			name: "azure complete",
			cfg:  storage.Config{Provider: storage.ProviderAzure, ConnectionString: "conn"},
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "gcs"},
			wantErr: "unknown provider",
		},
		{
			name: "local with defaults",
			cfg:  storage.Config{Provider: storage.ProviderLocal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		Provider:      storage.ProviderLocal,
		Root:          "artifacts",
		ContainerName: "artifacts",
	}

	base.Merge(&storage.Config{
		Provider:         storage.ProviderAzure,
		ConnectionString: "conn",
	})

	if base.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", base.Provider)
	}
	if base.Root != "artifacts" {
		t.Errorf("root should be preserved, got %s", base.Root)
	}
	if base.ConnectionString != "conn" {
		t.Errorf("connection_string: got %s, want conn", base.ConnectionString)
	}
}
