package types

import "testing"

func TestAltText(t *testing.T) {
	cases := []struct {
		image string
		want  string
	}{
		{image: "cat.png", want: "A picture of cat"},
		{image: "", want: "No image displayed"},
		{image: "   ", want: "No image displayed"},
		{image: "kuri.large.jpeg", want: "A picture of kuri.large"},
		{image: "noext", want: "A picture of noext"},
		{image: "images/tree.gif", want: "A picture of tree"},
	}

	for _, tc := range cases {
		if got := AltText(tc.image); got != tc.want {
			t.Fatalf("AltText(%q) = %q, want %q", tc.image, got, tc.want)
		}
	}
}

func TestIdentityRoles(t *testing.T) {
	var visitor Identity
	if visitor.IsAuthenticated() || visitor.IsTeacher() {
		t.Fatalf("zero identity must be logged out")
	}

	// A teacher flag without an email is still logged out.
	ghost := Identity{Teacher: RoleTeacher}
	if ghost.IsTeacher() {
		t.Fatalf("identity without email must not be a teacher")
	}

	student := Identity{Email: "a@student.school.nz", Teacher: RoleStudent}
	if !student.IsAuthenticated() || student.IsTeacher() {
		t.Fatalf("student identity roles wrong: %+v", student)
	}

	teacher := Identity{Email: "t@school.nz", Teacher: RoleTeacher}
	if !teacher.IsTeacher() {
		t.Fatalf("teacher identity roles wrong: %+v", teacher)
	}
}
