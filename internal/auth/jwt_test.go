package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/sparetrack/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 7, Username: "tech", Role: model.RoleTechnician}
}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	actor := claims.Actor()
	if actor.UserID != 7 || actor.Username != "tech" || actor.Role != model.RoleTechnician {
		t.Errorf("unexpected actor: %+v", actor)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
	if claims.Issuer != Issuer {
		t.Errorf("expected issuer %q, got %q", Issuer, claims.Issuer)
	}
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	a, _ := GenerateToken("s", testUser())
	b, _ := GenerateToken("s", testUser())
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Error("expected distinct token ids")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, _ := GenerateToken("secret", testUser())

	sign := func(method jwt.SigningMethod, key any, c Claims) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	now := time.Now()
	valid := jwt.RegisteredClaims{
		ID:        "x",
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	foreign := valid
	foreign.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", good},
		{"garbage", "secret", "not-a-token"},
		{"expired", "secret", sign(jwt.SigningMethodHS256, []byte("secret"), Claims{UserID: 1, RegisteredClaims: expired})},
		{"foreign issuer", "secret", sign(jwt.SigningMethodHS256, []byte("secret"), Claims{UserID: 1, RegisteredClaims: foreign})},
		{"no expiry", "secret", sign(jwt.SigningMethodHS256, []byte("secret"), Claims{UserID: 1, RegisteredClaims: noExpiry})},
		{"other hmac", "secret", sign(jwt.SigningMethodHS512, []byte("secret"), Claims{UserID: 1, RegisteredClaims: valid})},
		{"no user", "secret", sign(jwt.SigningMethodHS256, []byte("secret"), Claims{RegisteredClaims: valid})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.secret, tt.token); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("test", testUser())
	claims, _ := ValidateToken("test", token)

	diff := time.Until(claims.ExpiresAt.Time) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}

	if _, err := HashPassword("short"); err == nil {
		t.Error("expected policy violation for short password")
	}
}
