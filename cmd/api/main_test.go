package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitializeAPI(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "app.yml")

	configContent := []byte(`
apiPort: 8080
publicUrl: http://localhost:8080
database:
  driver: sqlite3
  path: ` + filepath.Join(dir, "test.db") + `
jwt:
  secret: test-secret
mailgun:
  domain: sandbox.example.org
  apiKey: key-test
  fromEmail: noreply@sandbox.example.org
storage:
  endpoint: http://localhost:9000
  region: us-east-1
  bucket: images
  accessKeyId: test
  secretAccessKey: test
`)
	if err := os.WriteFile(configPath, configContent, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	api, err := initializeAPI(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, api)
}

func TestInitializeAPIMissingConfig(t *testing.T) {
	api, err := initializeAPI(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
	assert.Nil(t, api)
}
