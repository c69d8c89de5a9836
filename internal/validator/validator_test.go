package validator

import "testing"

type sample struct {
	Name     string `validate:"required,max=10"`
	FamilyID string `validate:"omitempty,family_id"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Name: "alice", FamilyID: "smiths"}, false},
		{"no_family", sample{Name: "alice"}, false},
		{"missing_name", sample{FamilyID: "smiths"}, true},
		{"bad_family_id", sample{Name: "bob", FamilyID: "has space"}, true},
		{"family_id_leading_dash", sample{Name: "bob", FamilyID: "-smiths"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct(%+v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
