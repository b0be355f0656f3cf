package types

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Prefixed", "0x00000000000000000000000000000000000000aa", false},
		{"Bare", "00000000000000000000000000000000000000aa", false},
		{"Mixed case", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"Too short", "0xaa", true},
		{"Not hex", "0xzz000000000000000000000000000000000000aa", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddress(%q): err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNullAddress(t *testing.T) {
	if !IsNull(Address{}) {
		t.Error("zero Address should be null")
	}
	if IsNull(AddressFromBytes([]byte{1})) {
		t.Error("non-zero Address should not be null")
	}

	parsed := MustParseAddress("0x0000000000000000000000000000000000000000")
	if !IsNull(parsed) {
		t.Error("all-zero hex should parse to the null address")
	}
}

func TestAddressAsMapKey(t *testing.T) {
	a := MustParseAddress("0x00000000000000000000000000000000000000AA")
	b := AddressFromBytes([]byte{0xaa})

	m := map[Address]int{a: 1}
	if m[b] != 1 {
		t.Error("addresses with equal bytes should be the same map key")
	}
}
