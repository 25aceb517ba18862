package service

import "testing"

func TestGenerateOTPFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP() error: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("OTP %q has length %d, want 6", otp, len(otp))
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("OTP %q contains non-digit %q", otp, r)
			}
		}
		seen[otp] = true
	}
	// 200 draws from a million values colliding down to a handful would
	// point at a broken generator.
	if len(seen) < 100 {
		t.Errorf("only %d distinct codes in 200 draws", len(seen))
	}
}
