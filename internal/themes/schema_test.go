package themes

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateManifest(t *testing.T) {
	valid := []byte(`{
		"name": "default",
		"version": "2.1.0",
		"assets": {"files": {"stylesheet": "assets/css/site.css"}},
		"custom": {"anything": true}
	}`)
	if err := ValidateManifest(valid); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}
}

func TestValidateManifestMissingName(t *testing.T) {
	err := ValidateManifest([]byte(`{"version": "1.0.0"}`))
	if !errors.Is(err, ErrManifestInvalid) {
		t.Fatalf("expected ErrManifestInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Fatalf("error should name the missing property: %v", err)
	}
}

func TestValidateManifestWrongTypes(t *testing.T) {
	err := ValidateManifest([]byte(`{"name": "default", "assets": {"files": {"stylesheet": 42}}}`))
	if !errors.Is(err, ErrManifestInvalid) {
		t.Fatalf("expected ErrManifestInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "/assets/files/stylesheet") {
		t.Fatalf("error should carry the instance location: %v", err)
	}
}

func TestValidateManifestMalformedJSON(t *testing.T) {
	if err := ValidateManifest([]byte(`{"name":`)); !errors.Is(err, ErrManifestInvalid) {
		t.Fatalf("expected ErrManifestInvalid, got %v", err)
	}
}
