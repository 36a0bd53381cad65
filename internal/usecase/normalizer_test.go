package usecase

import (
	"strings"
	"testing"
)

func TestQueryNormalizer_Normalize(t *testing.T) {
	n := NewQueryNormalizer(NormalizerConfig{})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"price template with accents", "¿Cuánto cuesta el Acetaminofén?", "acetaminofen"},
		{"greeting and verb", "Hola, ¿tienen vitamina C?", "vitamina c"},
		{"long template before article", "Dame el precio de la amoxicilina 500mg, por favor", "amoxicilina 500mg"},
		{"feminine article", "cuanto cuesta la loratadina", "loratadina"},
		{"bare product", "Ibuprofeno", "ibuprofeno"},
		{"keeps dosage separators", "paracetamol 5/325.", "paracetamol 5/325"},
		{"keeps decimal dosage", "¿hay diclofenaco 1.5mg?", "diclofenaco 1.5mg"},
		{"collapses whitespace", "  precio   del    omeprazol  ", "omeprazol"},
		{"noise inside a word survives", "elixir paregorico", "elixir paregorico"},
		{"noise only falls back to input", "Precio", "precio"},
		{"punctuation only falls back to input", "¿?", "¿?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryNormalizer_Idempotent(t *testing.T) {
	n := NewQueryNormalizer(NormalizerConfig{})

	inputs := []string{
		"¿Cuánto cuesta el Acetaminofén?",
		"el la los las paracetamol",
		"Hola, ¿tienen, vitamina C?",
		"precio, precio del, precio de la aspirina",
		"Él",
		"¿Precio?",
		"jarabe para la tos 120ml",
		"",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestQueryNormalizer_RepeatedNoise(t *testing.T) {
	n := NewQueryNormalizer(NormalizerConfig{})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"many adjacent articles", strings.Repeat("el ", 600) + "paracetamol", "paracetamol"},
		{"articles split by commas", strings.Repeat("la, ", 300) + "loratadina", "loratadina"},
		{"removal exposes a phrase", "cuanto el cuesta ibuprofeno", "ibuprofeno"},
		{"repeated template", strings.Repeat("cuanto cuesta el ", 50) + "omeprazol", "omeprazol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
			if again := n.Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q then %q", got, again)
			}
		})
	}
}

func FuzzNormalize(f *testing.F) {
	seeds := []string{
		"¿Cuánto cuesta el Acetaminofén?",
		"el la los las paracetamol",
		"Hola, ¿tienen, vitamina C?",
		strings.Repeat("el ", 300) + "paracetamol",
		"cuanto el cuesta ibuprofeno",
		"-.- 5/325. + %",
		"İSTANBUL Ǆ ﬁ",
		"",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	n := NewQueryNormalizer(NormalizerConfig{})
	f.Fuzz(func(t *testing.T, input string) {
		once := n.Normalize(input)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
		if input != "" && once == "" {
			t.Errorf("Normalize(%q) returned an empty string", input)
		}
	})
}

func TestQueryNormalizer_CustomPhrases(t *testing.T) {
	n := NewQueryNormalizer(NormalizerConfig{NoisePhrases: []string{"Cuánto", "  me   sale ", "cuanto"}})

	if got := n.Normalize("¿Cuánto me sale el ibuprofeno?"); got != "el ibuprofeno" {
		t.Errorf("Normalize() = %q, want %q", got, "el ibuprofeno")
	}
	phrases := 0
	for _, group := range n.phrases {
		phrases += len(group)
	}
	if phrases != 2 {
		t.Errorf("phrases = %d, want 2 (folded duplicates removed)", phrases)
	}
}

func TestQueryNormalizer_LongestPhraseFirst(t *testing.T) {
	n := NewQueryNormalizer(NormalizerConfig{NoisePhrases: []string{"el", "cuanto cuesta el"}})

	if got := n.Normalize("cuanto cuesta el atamel"); got != "atamel" {
		t.Errorf("Normalize() = %q, want %q", got, "atamel")
	}
}

func TestFoldText(t *testing.T) {
	tests := map[string]string{
		"Acetaminofén": "acetaminofen",
		"ÑAME":         "name",
		"Ácido Fólico": "acido folico",
		"plain":        "plain",
	}
	for input, want := range tests {
		if got := foldText(input); got != want {
			t.Errorf("foldText(%q) = %q, want %q", input, got, want)
		}
	}
}
