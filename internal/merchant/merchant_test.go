package merchant

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"upi_reference_stripped", "UPI/DR/412345678901/NETFLIX/YESB/netflix@ybl", "netflix yesb ybl"},
		{"same_merchant_other_reference", "UPI/DR/498765432100/NETFLIX/YESB/netflix@ybl", "netflix yesb ybl"},
		{"plain_text", "Spotify Premium", "spotify premium"},
		{"card_purchase", "POS 4111XXXX1111 AMAZON RETAIL", "amazon retail"},
		{"only_noise", "NEFT 0012345", ""},
		{"empty", "", ""},
		{"truncated_to_three_tokens", "Big Bazaar Future Retail Mumbai", "big bazaar future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.in); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("UPI/DR/4123/swiggy/Bangalore", 2); got != "Swiggy Bangalore" {
		t.Errorf("expected Swiggy Bangalore, got %q", got)
	}
	if got := DisplayName("12345", 2); got != "" {
		t.Errorf("expected empty display name, got %q", got)
	}
}
