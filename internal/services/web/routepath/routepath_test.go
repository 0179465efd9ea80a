package routepath

import "testing"

func TestRegistrationRoutesNestUnderPage(t *testing.T) {
	t.Parallel()

	if SignIn != "/school-registration/sign-in" {
		t.Fatalf("SignIn = %q", SignIn)
	}
	if SignOut != "/school-registration/sign-out" {
		t.Fatalf("SignOut = %q", SignOut)
	}
	if ECPUpload != "/school-registration/ecp" {
		t.Fatalf("ECPUpload = %q", ECPUpload)
	}
}

func TestWithQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		query string
		want  string
	}{
		{path: "/school-registration", query: "", want: "/school-registration"},
		{path: "/school-registration", query: "lang=en", want: "/school-registration?lang=en"},
		{path: "/school-registration", query: "?lang=en", want: "/school-registration?lang=en"},
		{path: "/", query: "a=%zz", want: "/"},
	}
	for _, tc := range tests {
		if got := WithQuery(tc.path, tc.query); got != tc.want {
			t.Fatalf("WithQuery(%q, %q) = %q, want %q", tc.path, tc.query, got, tc.want)
		}
	}
}
