package services

import (
	"context"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/shared"
)

func TestVerifyJWTToken(t *testing.T) {
	svc := NewJWTService("secret-a")

	token, err := svc.ToJWT("user-1", shared.RoleInstructor)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := svc.VerifyJWTToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != shared.RoleInstructor {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := NewJWTService("secret-b").VerifyJWTToken(token); err == nil {
		t.Fatalf("expected a token signed with another secret to fail")
	}

	expired := NewJWTService("secret-a")
	expired.AccessTokenDuration = -time.Minute
	old, err := expired.ToJWT("user-1", shared.RoleLearner)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.VerifyJWTToken(old); err == nil {
		t.Fatalf("expected an expired token to fail")
	}
}

func TestVerifyJWTToken_DefaultsToLearner(t *testing.T) {
	svc := NewJWTService("secret-a")
	token, err := svc.ToJWT("user-2", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := svc.VerifyJWTToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != shared.RoleLearner {
		t.Fatalf("expected learner role got %q", claims.Role)
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := NewJWTService("secret-a")
	cases := []struct {
		header  string
		token   string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"", "", true},
		{"Token abc", "", true},
	}
	for _, tc := range cases {
		token, err := svc.ExtractTokenFromHeader(tc.header)
		if (err != nil) != tc.wantErr || token != tc.token {
			t.Fatalf("header %q: got %q, %v", tc.header, token, err)
		}
	}
}

func TestRateLimit_AllowsWithoutRedis(t *testing.T) {
	svc := &RateLimitService{}
	svc.initDefaultConfigs()

	allowed, info, err := svc.IsAllowed(context.Background(), "learner-1", LimitEnroll)
	if err != nil || !allowed || info.Remaining != -1 {
		t.Fatalf("expected unlimited pass-through got allowed=%v info=%+v err=%v", allowed, info, err)
	}
}
