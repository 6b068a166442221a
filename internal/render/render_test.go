package render

import (
	"strings"
	"testing"

	"resumebuilder/internal/resume"
)

func sample() resume.Resume {
	r := resume.New("owner-1", "Backend")
	r.ID = "r-1"
	r.PersonalInfo = resume.PersonalInfo{
		FullName:   "Ada Lovelace",
		Profession: "Engineer",
		Email:      "ada@example.com",
		Image:      "https://img.example.com/ada.png",
	}
	r.ProfessionalSummary = "Builds analytical engines."
	r.Skills = resume.Skills{"Go", "PostgreSQL"}
	r.Experience = []resume.Experience{{
		Company:     "Analytical Co",
		Position:    "Lead",
		StartDate:   "2021-03",
		EndDate:     "2022-01",
		IsCurrent:   true,
		Description: "Shipped things\n\n  Led team  ",
	}}
	r.Education = []resume.Education{{Institution: "Uni", Degree: "BSc", Field: "Maths", GraduationDate: "2019-06"}}
	return r
}

func TestRenderEachTemplate(t *testing.T) {
	for _, tpl := range resume.Templates() {
		t.Run(string(tpl), func(t *testing.T) {
			r := sample()
			r.Template = tpl
			out, err := HTML(r)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			html := string(out)
			for _, want := range []string{"Ada Lovelace", "Analytical Co", "Mar 2021 - Present", "PostgreSQL", "size: A4", "template-" + string(tpl)} {
				if !strings.Contains(html, want) {
					t.Fatalf("expected %q in %s output", want, tpl)
				}
			}
		})
	}
}

func TestRenderImageOnlyInMinimalImage(t *testing.T) {
	r := sample()
	r.Template = resume.TemplateMinimalImage
	out, err := HTML(r)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "https://img.example.com/ada.png") {
		t.Fatal("minimal-image should show the profile image")
	}

	r.Template = resume.TemplateClassic
	out, err = HTML(r)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "https://img.example.com/ada.png") {
		t.Fatal("classic should not show the profile image")
	}
}

func TestRenderUnknownTemplateFallsBackToClassic(t *testing.T) {
	r := sample()
	r.Template = "glossy"
	if got := Resolve(r.Template); got != resume.TemplateClassic {
		t.Fatalf("Resolve = %q", got)
	}
	out, err := HTML(r)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `class="classic"`) {
		t.Fatal("expected classic body for unknown template")
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	r := sample()
	r.PersonalInfo.FullName = `<script>alert("x")</script>`
	r.AccentColor = `red;}</style><script>`
	out, err := HTML(r)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script>") {
		t.Fatal("user content must be escaped")
	}
	if !strings.Contains(html, resume.DefaultAccentColor) {
		t.Fatal("invalid accent color should fall back to the default")
	}
}

func TestDateHelpers(t *testing.T) {
	cases := []struct {
		name string
		exp  resume.Experience
		want string
	}{
		{"range", resume.Experience{StartDate: "2020-01", EndDate: "2021-12"}, "Jan 2020 - Dec 2021"},
		{"current", resume.Experience{StartDate: "2020-01", EndDate: "2021-12", IsCurrent: true}, "Jan 2020 - Present"},
		{"start only", resume.Experience{StartDate: "2020-01"}, "Jan 2020"},
		{"free text", resume.Experience{StartDate: "Spring 2019", EndDate: "2020-05-04"}, "Spring 2019 - May 2020"},
		{"empty", resume.Experience{}, ""},
	}
	for _, tc := range cases {
		if got := dateRange(tc.exp); got != tc.want {
			t.Errorf("%s: dateRange = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestInitialsAndLines(t *testing.T) {
	if got := initials("ada king lovelace"); got != "AK" {
		t.Fatalf("initials = %q", got)
	}
	if got := initials("  "); got != "" {
		t.Fatalf("initials of blank = %q", got)
	}
	if got := lines("a\n\n b \n"); len(got) != 2 || got[1] != "b" {
		t.Fatalf("lines = %v", got)
	}
}
