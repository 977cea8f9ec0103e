package venice

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("sk-super-secret")

	if got := s.String(); got != "[REDACTED]" {
		t.Errorf("String() = %q", got)
	}
	if got := fmt.Sprintf("%v", s); got != "[REDACTED]" {
		t.Errorf("%%v = %q", got)
	}
	if got := fmt.Sprintf("%#v", s); got != "venice.Secret{[REDACTED]}" {
		t.Errorf("%%#v = %q", got)
	}
	if got := fmt.Sprintf("%s", s); strings.Contains(got, "super-secret") {
		t.Errorf("%%s leaked the value: %q", got)
	}
}

func TestSecretJSONMarshal(t *testing.T) {
	s := NewSecret("sk-super-secret")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `"[REDACTED]"` {
		t.Errorf("Marshal = %s", data)
	}

	wrapped, err := json.Marshal(map[string]Secret{"key": s})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if strings.Contains(string(wrapped), "super-secret") {
		t.Errorf("nested marshal leaked the value: %s", wrapped)
	}
}

func TestSecretExpose(t *testing.T) {
	s := NewSecret("sk-super-secret")
	if got := s.Expose(); got != "sk-super-secret" {
		t.Errorf("Expose() = %q", got)
	}
	if !NewSecret("").IsEmpty() {
		t.Error("IsEmpty() = false for empty secret")
	}
	if s.IsEmpty() {
		t.Error("IsEmpty() = true for non-empty secret")
	}
}
