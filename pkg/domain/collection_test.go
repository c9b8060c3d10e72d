package domain

import (
	"errors"
	"testing"
)

func TestDeriveCollectionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CollectionID
		wantErr bool
	}{
		{
			name:  "simple name",
			input: "acme",
			want:  "org_acme",
		},
		{
			name:  "uppercase is normalized",
			input: "Acme",
			want:  "org_acme",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  acme  ",
			want:  "org_acme",
		},
		{
			name:  "digits underscore hyphen allowed",
			input: "acme_corp-2",
			want:  "org_acme_corp-2",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "ab",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			wantErr: true,
		},
		{
			name:    "interior whitespace",
			input:   "acme corp",
			wantErr: true,
		},
		{
			name:    "dollar sign",
			input:   "acme$",
			wantErr: true,
		},
		{
			name:    "dot",
			input:   "acme.corp",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveCollectionID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("DeriveCollectionID(%q) error = %v, want ErrInvalidName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveCollectionID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("DeriveCollectionID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeriveCollectionID_Deterministic(t *testing.T) {
	first, err := DeriveCollectionID("Acme-Corp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := DeriveCollectionID("Acme-Corp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("derive is not deterministic: %q vs %q", first, second)
	}

	// Case variants of the same name map to the same collection.
	variant, err := DeriveCollectionID("  ACME-CORP ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variant != first {
		t.Errorf("case variant derived %q, want %q", variant, first)
	}
}
