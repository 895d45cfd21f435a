package validation

import (
	"testing"

	"github.com/me/cinedex/pkg/model"
)

func TestStruct_Valid(t *testing.T) {
	m := &model.Movie{Title: "Heat", ReleaseYear: 1995, Duration: 170, Rating: 8.3}
	if err := Struct(m); err != nil {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestStruct_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		field string
	}{
		{"missing title", &model.Movie{ReleaseYear: 1995}, "title"},
		{"rating too high", &model.Movie{Title: "x", Rating: 11}, "rating"},
		{"bad air date", &model.Episode{SeasonID: "s", Title: "x", AirDate: "02/06/2002"}, "air_date"},
		{"bad role", &model.User{UserName: "alice", Role: "root"}, "role"},
		{"short user name", &model.User{UserName: "al"}, "user_name"},
		{"review rating", &model.Review{Rating: 0}, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Code != model.ErrValidation {
				t.Errorf("code = %s", err.Code)
			}
			found := false
			for _, d := range err.Details {
				if d.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("details %+v missing field %s", err.Details, tt.field)
			}
		})
	}
}

func TestStruct_SingleErrorMessage(t *testing.T) {
	err := Struct(&model.Genre{})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Message != "name: is required" {
		t.Errorf("message = %q", err.Message)
	}
}
