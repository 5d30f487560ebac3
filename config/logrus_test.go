package config

import "testing"

func TestLogErrorNilError(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("LogError panicked with nil err: %v", r)
		}
	}()

	LogError(GetLogger(), "config", "TestLogErrorNilError", "missing required fields", nil, nil)
	LogError(GetLogger(), "config", "TestLogErrorNilError", "missing required fields",
		map[string]any{"store_id": 0}, nil)
}
