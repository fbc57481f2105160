package validation

import "testing"

type sample struct {
	Name  string `json:"name" validate:"required,notblank,max=10"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Stars int    `json:"stars" validate:"gte=1,lte=5"`
}

func Test_Validate_UsesJSONNamesAndMessages(t *testing.T) {
	errs, err := Validate(sample{Name: "   ", Email: "nope", Phone: "abc", Stars: 9})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"name":  "This field cannot be blank",
		"email": "Invalid email format",
		"phone": "Invalid phone number",
		"stars": "Must be less than or equal to 5",
	}
	for field, msg := range want {
		got := errs[field]
		if len(got) == 0 || got[0] != msg {
			t.Fatalf("%s: want %q, got %v", field, msg, got)
		}
	}
}

func Test_Validate_OK(t *testing.T) {
	errs, err := Validate(sample{Name: "Ana", Email: "ana@x.com", Phone: "+55 11 99999-0000", Stars: 5})
	if err != nil || errs != nil {
		t.Fatalf("unexpected %v %v", errs, err)
	}
}
