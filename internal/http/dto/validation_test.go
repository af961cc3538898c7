package dto

import "testing"

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "empty uses default", raw: "", want: 20},
		{name: "valid", raw: "5", want: 5},
		{name: "capped", raw: "1000", want: 100},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-3", wantErr: true},
		{name: "not a number", raw: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := ParseLimit(tt.raw, 20, 100)
			if (len(errs) > 0) != tt.wantErr {
				t.Fatalf("errs = %v, wantErr %v", errs, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToResponse(t *testing.T) {
	errs := []ValidationError{
		{Field: "limit", Message: "must be a number"},
		{Field: "id", Message: "required"},
	}
	if got := ToResponse(errs); got != "limit: must be a number; id: required" {
		t.Errorf("got %q", got)
	}
	m := ToMap(errs)
	if m["id"] != "required" || len(m) != 2 {
		t.Errorf("ToMap = %v", m)
	}
}
