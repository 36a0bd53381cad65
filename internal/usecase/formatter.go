package usecase

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pharmavoz/backend/internal/domain"
)

// RandSource picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level generator
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// PhrasePools are the building blocks of the spoken answer.
// Assertions may reference the product with {producto}; stock sentences with {stock}.
type PhrasePools struct {
	Greetings    []string
	Assertions   []string
	Connectors   []string
	StockPhrases []string
	OutOfStock   []string
	DecimalWord  string // replaces the decimal point when the amount is read aloud
	CurrencyWord string // NoCurrencyWord leaves the amount without a unit
}

// NoCurrencyWord as PhrasePools.CurrencyWord reads the amount without a currency name
const NoCurrencyWord = "-"

// DefaultPhrasePools returns the Spanish phrasing used at the counter
func DefaultPhrasePools() PhrasePools {
	return PhrasePools{
		Greetings: []string{
			"¡Claro!",
			"¡Con gusto!",
			"¡Por supuesto!",
			"Déjame ver...",
			"¡Enseguida!",
		},
		Assertions: []string{
			"Tenemos {producto}.",
			"Sí, contamos con {producto}.",
			"{producto} está disponible.",
			"Encontré {producto}.",
		},
		Connectors: []string{
			"Su precio es de",
			"Cuesta",
			"El precio es de",
			"Te sale en",
		},
		StockPhrases: []string{
			"Quedan {stock} unidades en inventario.",
			"Hay {stock} unidades disponibles.",
		},
		OutOfStock: []string{
			"Por ahora no quedan unidades en inventario.",
		},
		DecimalWord:  "con",
		CurrencyWord: "bolívares",
	}
}

// PriceFormatter renders matched entries as display prices and speech text
type PriceFormatter struct {
	pools PhrasePools
	rng   RandSource
}

// NewPriceFormatter creates a formatter. Empty pools fall back to the defaults and a nil
// random source uses the global generator.
func NewPriceFormatter(pools PhrasePools, rng RandSource) *PriceFormatter {
	defaults := DefaultPhrasePools()
	if len(pools.Greetings) == 0 {
		pools.Greetings = defaults.Greetings
	}
	if len(pools.Assertions) == 0 {
		pools.Assertions = defaults.Assertions
	}
	if len(pools.Connectors) == 0 {
		pools.Connectors = defaults.Connectors
	}
	if len(pools.StockPhrases) == 0 {
		pools.StockPhrases = defaults.StockPhrases
	}
	if len(pools.OutOfStock) == 0 {
		pools.OutOfStock = defaults.OutOfStock
	}
	if pools.DecimalWord == "" {
		pools.DecimalWord = defaults.DecimalWord
	}
	switch pools.CurrencyWord {
	case "":
		pools.CurrencyWord = defaults.CurrencyWord
	case NoCurrencyWord:
		pools.CurrencyWord = ""
	}
	if rng == nil {
		rng = globalRand{}
	}

	return &PriceFormatter{pools: pools, rng: rng}
}

// Format converts the entry price with rate and renders it.
// The rate is validated first: a zero or negative local price is never produced.
func (f *PriceFormatter) Format(entry domain.CatalogEntry, rate domain.ExchangeRate, verbose bool) (*domain.PriceQuote, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	amount := roundCents(entry.UnitPrice * float64(rate))
	spoken := SpeechAmount(amount, f.pools.DecimalWord)

	parts := []string{
		f.pick(f.pools.Greetings),
		strings.ReplaceAll(f.pick(f.pools.Assertions), "{producto}", entry.DisplayName),
		f.pick(f.pools.Connectors),
	}

	price := spoken
	if f.pools.CurrencyWord != "" {
		price += " " + f.pools.CurrencyWord
	}
	parts = append(parts, price+".")

	if verbose {
		if entry.Stock > 0 {
			parts = append(parts, strings.ReplaceAll(f.pick(f.pools.StockPhrases), "{stock}", strconv.Itoa(entry.Stock)))
		} else {
			parts = append(parts, f.pick(f.pools.OutOfStock))
		}
	}

	return &domain.PriceQuote{
		LocalAmount:       amount,
		DisplayPriceLocal: DisplayAmount(amount),
		SpeechText:        strings.Join(parts, " "),
	}, nil
}

// NotFound renders the fixed answer for a query without a match
func (f *PriceFormatter) NotFound(query string) string {
	return "No encontré " + query + " en el inventario."
}

func (f *PriceFormatter) pick(pool []string) string {
	return pool[f.rng.IntN(len(pool))]
}

// DisplayAmount renders 1234.56 as "1.234,56"
func DisplayAmount(amount float64) string {
	fixed := strconv.FormatFloat(roundCents(amount), 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, decPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	return sign + b.String() + "," + decPart
}

// SpeechAmount renders 75.00 as "75 con 00" for speech synthesis
func SpeechAmount(amount float64, decimalWord string) string {
	fixed := strconv.FormatFloat(roundCents(amount), 'f', 2, 64)
	return strings.Replace(fixed, ".", " "+decimalWord+" ", 1)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
