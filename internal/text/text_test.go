package text

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Dança e Parkinson", "danca-e-parkinson"},
		{"Exercícios de Fisioterapia!", "exercicios-de-fisioterapia"},
		{"  Nutrição & Saúde  ", "nutricao-saude"},
		{"---", ""},
		{"Palestra 2024", "palestra-2024"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestYouTubeEmbedURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=abc123&t=30s", "https://www.youtube.com/embed/abc123"},
		{"https://vimeo.com/12345", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := YouTubeEmbedURL(c.in); got != c.want {
			t.Fatalf("YouTubeEmbedURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1", "1"},
		{"11", "11"},
		{"119", "(11) 9"},
		{"1198765", "(11) 98765"},
		{"11987654321", "(11) 98765-4321"},
		{"119876543210000", "(11) 98765-4321"},
		{"(11) 98765-4321", "(11) 98765-4321"},
		{"abc", ""},
	}
	for _, c := range cases {
		if got := FormatPhone(c.in); got != c.want {
			t.Fatalf("FormatPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
