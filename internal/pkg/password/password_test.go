package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("secreto123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !Verify("secreto123", hash) {
		t.Error("expected password to verify against its own hash")
	}
	if Verify("otra-clave", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestIsTemporary(t *testing.T) {
	// Provisioned accounts start with the DNI as password.
	hash, err := Hash("30123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !IsTemporary("30123456", hash) {
		t.Error("credential equal to the DNI should be flagged as temporary")
	}

	changed, err := Hash("mi-clave-real")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsTemporary("30123456", changed) {
		t.Error("changed credential must not be flagged as temporary")
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("corta") {
		t.Error("passwords under 8 characters must be rejected")
	}
	if !ValidatePassword("suficiente") {
		t.Error("8+ character password should pass")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")
	if a == b {
		t.Error("different tokens must hash differently")
	}
	if a != HashToken("token-a") {
		t.Error("token hashing must be deterministic")
	}
}
