package jwt

import (
	"errors"
	"testing"
)

const (
	testSecret        = "test-secret"
	testRefreshSecret = "test-refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	divisionID := uint(7)
	in := AccessTokenInput{
		UserID:           42,
		DNI:              "30123456",
		FirstName:        "Ana",
		LastName:         "García",
		Role:             "STUDENT",
		SchoolDivisionID: &divisionID,
	}

	token, err := GenerateAccessToken(in, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ValidateAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != 42 || claims.DNI != "30123456" || claims.Role != "STUDENT" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.SchoolDivisionID == nil || *claims.SchoolDivisionID != 7 {
		t.Error("school division claim lost")
	}
	if claims.Subject != "30123456" {
		t.Errorf("Subject = %q, want the DNI", claims.Subject)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(AccessTokenInput{UserID: 1, DNI: "30123456", Role: "ADMIN"}, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := ValidateAccessToken(token, "other-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(AccessTokenInput{UserID: 1, DNI: "30123456"}, testSecret, -1)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := ValidateAccessToken(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	claims, err := ValidateRefreshToken(token, testRefreshSecret)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.TokenID != "token-id-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	access, err := GenerateAccessToken(AccessTokenInput{UserID: 1, DNI: "30123456"}, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	// Different signing secrets keep the token kinds apart
	if _, err := ValidateRefreshToken(access, testRefreshSecret); err == nil {
		t.Error("access token accepted as refresh token")
	}
}
