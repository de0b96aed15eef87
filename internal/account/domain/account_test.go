package domain

import "testing"

func TestNewAccount_StartsUnverified(t *testing.T) {
	a := NewAccount(" Asha ", "Asha@X.com", "+91 12345-67890", LanguageEnglish)
	if a.ID == "" {
		t.Fatal("ID should be assigned")
	}
	if a.IsVerified {
		t.Error("new account must not be verified")
	}
	if a.VerifiedAt != nil {
		t.Error("VerifiedAt should be nil")
	}
	if a.Name != "Asha" {
		t.Errorf("Name = %q, want %q", a.Name, "Asha")
	}
	if a.Email != "asha@x.com" {
		t.Errorf("Email = %q, want %q", a.Email, "asha@x.com")
	}
	if a.Phone != "+911234567890" {
		t.Errorf("Phone = %q, want %q", a.Phone, "+911234567890")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewAccount_UniqueIDs(t *testing.T) {
	a := NewAccount("a", "a@x.com", "1", LanguageEnglish)
	b := NewAccount("b", "b@x.com", "2", LanguageEnglish)
	if a.ID == b.ID {
		t.Errorf("IDs should differ, both %q", a.ID)
	}
}

func TestParseLanguage(t *testing.T) {
	testCases := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en", LanguageEnglish, false},
		{"hi", LanguageHindi, false},
		{"HI", LanguageHindi, false},
		{"", LanguageEnglish, false},
		{"fr", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLanguage(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseLanguage(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidate_MissingFields(t *testing.T) {
	testCases := []struct {
		name string
		a    Account
	}{
		{"missing id", Account{Name: "n", Email: "e", Phone: "p"}},
		{"missing name", Account{ID: "1", Email: "e", Phone: "p"}},
		{"missing email", Account{ID: "1", Name: "n", Phone: "p"}},
		{"missing phone", Account{ID: "1", Name: "n", Email: "e"}},
		{"bad language", Account{ID: "1", Name: "n", Email: "e", Phone: "p", PreferredLanguage: "de"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.a.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestValidate_DefaultsLanguage(t *testing.T) {
	a := Account{ID: "1", Name: "n", Email: "e", Phone: "p"}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if a.PreferredLanguage != LanguageEnglish {
		t.Errorf("PreferredLanguage = %q, want en", a.PreferredLanguage)
	}
}
