package anyconvert

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	maxFactorInput   = 1_000_000_000_000_000 // trial division stays under ~3e7 steps
	maxPrimeDigits   = 1000
	maxFibonacciN    = 10000
	maxIntegerDigits = 4096
)

func numberUnits() []Unit {
	return []Unit{
		NewTextUnit(Meta{
			ID:          "number-bases",
			Name:        "Number Bases",
			Category:    CategoryNumber,
			Description: "Show an integer in decimal, hexadecimal, octal and binary. Accepts 0x, 0o and 0b prefixes.",
			Placeholder: "255",
		}, stringFunc(numberBases)),
		baseUnit("decimal-to-binary", "Decimal to Binary", 10, 2),
		baseUnit("decimal-to-hex", "Decimal to Hex", 10, 16),
		baseUnit("decimal-to-octal", "Decimal to Octal", 10, 8),
		baseUnit("binary-to-decimal", "Binary to Decimal", 2, 10),
		baseUnit("hex-to-decimal", "Hex to Decimal", 16, 10),
		baseUnit("octal-to-decimal", "Octal to Decimal", 8, 10),
		NewTextUnit(Meta{
			ID:          "roman-encode",
			Name:        "Number to Roman",
			Category:    CategoryNumber,
			Description: "Write an integer from 1 to 3999 as a Roman numeral.",
			Placeholder: "2024",
		}, stringFunc(func(s string) (string, error) {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return "", Invalidf("not an integer: %q", strings.TrimSpace(s))
			}
			return toRoman(n)
		})),
		NewTextUnit(Meta{
			ID:          "roman-decode",
			Name:        "Roman to Number",
			Category:    CategoryNumber,
			Description: "Read a Roman numeral as a decimal integer.",
			Placeholder: "MMXXIV",
		}, stringFunc(func(s string) (string, error) {
			n, err := fromRoman(s)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(n), nil
		})),
		NewTextUnit(Meta{
			ID:          "prime-factors",
			Name:        "Prime Factors",
			Category:    CategoryNumber,
			Description: "Factor a positive integer (up to 10^15) into primes.",
			Placeholder: "360",
		}, stringFunc(primeFactors)),
		NewTextUnit(Meta{
			ID:          "is-prime",
			Name:        "Is Prime",
			Category:    CategoryNumber,
			Description: "Test whether an integer is prime.",
			Placeholder: "104729",
		}, stringFunc(isPrime)),
		NewTextUnit(Meta{
			ID:          "fibonacci",
			Name:        "Fibonacci",
			Category:    CategoryNumber,
			Description: "Compute the n-th Fibonacci number (n up to 10000).",
			Placeholder: "50",
		}, stringFunc(fibonacci)),
		NewTextUnit(Meta{
			ID:          "bytes-humanize",
			Name:        "Bytes Humanize",
			Category:    CategoryNumber,
			Description: "Express a byte count in binary (KiB) and decimal (kB) units.",
			Placeholder: "1536000",
		}, stringFunc(func(s string) (string, error) {
			f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 64)
			if err != nil || f < 0 || f >= math.MaxInt64 || math.IsNaN(f) {
				return "", Invalidf("expected a non-negative byte count")
			}
			n := int64(f)
			return fmt.Sprintf("%s\n%s", humanBytes(n), siBytes(n)), nil
		})),
		NewTextUnit(Meta{
			ID:          "number-to-words",
			Name:        "Number to Words",
			Category:    CategoryNumber,
			Description: "Spell out an integer in English.",
			Placeholder: "1234",
		}, stringFunc(func(s string) (string, error) {
			n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
			if err != nil {
				return "", Invalidf("expected an integer within ±9223372036854775807")
			}
			return numberToWords(n), nil
		})),
	}
}

var baseNames = map[int]string{2: "binary", 8: "octal", 10: "decimal", 16: "hexadecimal"}

func baseUnit(id, name string, from, to int) Unit {
	return NewTextUnit(Meta{
		ID:          id,
		Name:        name,
		Category:    CategoryNumber,
		Description: fmt.Sprintf("Convert a %s integer to %s.", baseNames[from], baseNames[to]),
		Placeholder: new(big.Int).SetInt64(2024).Text(from),
	}, stringFunc(func(s string) (string, error) {
		n, err := parseBigInt(s, from)
		if err != nil {
			return "", err
		}
		return n.Text(to), nil
	}))
}

// parseBigInt reads an integer in the given base, tolerating separators, a sign and the
// matching 0x/0o/0b prefix.
func parseBigInt(s string, base int) (*big.Int, error) {
	clean := strings.NewReplacer("_", "", " ", "", ",", "").Replace(strings.TrimSpace(s))
	neg := strings.HasPrefix(clean, "-")
	clean = strings.TrimLeft(clean, "+-")
	lower := strings.ToLower(clean)
	switch {
	case base == 16 && strings.HasPrefix(lower, "0x"),
		base == 8 && strings.HasPrefix(lower, "0o"),
		base == 2 && strings.HasPrefix(lower, "0b"):
		clean = clean[2:]
	}
	if clean == "" {
		return nil, Invalidf("no %s number", baseNames[base])
	}
	if len(clean) > maxIntegerDigits {
		return nil, Invalidf("number too long (max %d digits)", maxIntegerDigits)
	}
	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return nil, Invalidf("not a valid %s number: %q", baseNames[base], strings.TrimSpace(s))
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// parseAnyBase picks the base from a 0x, 0o or 0b prefix, defaulting to decimal.
func parseAnyBase(s string) (*big.Int, error) {
	t := strings.ToLower(strings.TrimLeft(strings.TrimSpace(s), "+-"))
	switch {
	case strings.HasPrefix(t, "0x"):
		return parseBigInt(s, 16)
	case strings.HasPrefix(t, "0o"):
		return parseBigInt(s, 8)
	case strings.HasPrefix(t, "0b"):
		return parseBigInt(s, 2)
	}
	return parseBigInt(s, 10)
}

func numberBases(s string) (string, error) {
	n, err := parseAnyBase(s)
	if err != nil {
		return "", err
	}
	sign := ""
	abs := new(big.Int).Abs(n)
	if n.Sign() < 0 {
		sign = "-"
	}
	return fmt.Sprintf("Decimal: %s\nHex: %s0x%s\nOctal: %s0o%s\nBinary: %s0b%s",
		n.Text(10), sign, abs.Text(16), sign, abs.Text(8), sign, abs.Text(2)), nil
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func toRoman(n int) (string, error) {
	if n < 1 || n > 3999 {
		return "", Invalidf("Roman numerals cover 1 to 3999")
	}
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String(), nil
}

func fromRoman(s string) (int, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if in == "" {
		return 0, Invalidf("no Roman numeral")
	}
	rest, total := in, 0
	for _, r := range romanNumerals {
		for strings.HasPrefix(rest, r.symbol) {
			total += r.value
			rest = rest[len(r.symbol):]
		}
	}
	if rest != "" || total == 0 {
		return 0, Invalidf("not a Roman numeral: %q", in)
	}
	// Reject non-canonical forms such as IIII or IC.
	if canonical, err := toRoman(total); err != nil || canonical != in {
		return 0, Invalidf("not a canonical Roman numeral: %q", in)
	}
	return total, nil
}

func parsePositive(s string, limit uint64) (uint64, error) {
	n, err := strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 10, 64)
	if err != nil || n == 0 {
		return 0, Invalidf("expected a positive integer")
	}
	if n > limit {
		return 0, Invalidf("number too large (max %d)", limit)
	}
	return n, nil
}

func factorize(n uint64) []uint64 {
	var factors []uint64
	for n%2 == 0 && n > 1 {
		factors = append(factors, 2)
		n /= 2
	}
	for p := uint64(3); p*p <= n; p += 2 {
		for n%p == 0 {
			factors = append(factors, p)
			n /= p
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}

func primeFactors(s string) (string, error) {
	n, err := parsePositive(s, maxFactorInput)
	if err != nil {
		return "", err
	}
	if n == 1 {
		return "1 has no prime factors", nil
	}
	factors := factorize(n)
	var parts []string
	for i := 0; i < len(factors); {
		j := i
		for j < len(factors) && factors[j] == factors[i] {
			j++
		}
		if j-i == 1 {
			parts = append(parts, strconv.FormatUint(factors[i], 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d^%d", factors[i], j-i))
		}
		i = j
	}
	return fmt.Sprintf("%d = %s", n, strings.Join(parts, " × ")), nil
}

func isPrime(s string) (string, error) {
	n, err := parseBigInt(s, 10)
	if err != nil {
		return "", err
	}
	if len(n.String()) > maxPrimeDigits {
		return "", Invalidf("number too long (max %d digits)", maxPrimeDigits)
	}
	if n.Cmp(big.NewInt(2)) < 0 {
		return fmt.Sprintf("%s is not prime", n), nil
	}
	if n.ProbablyPrime(20) {
		return fmt.Sprintf("%s is prime", n), nil
	}
	if n.IsUint64() && n.Uint64() <= maxFactorInput {
		return fmt.Sprintf("%s is not prime (smallest factor %d)", n, factorize(n.Uint64())[0]), nil
	}
	return fmt.Sprintf("%s is not prime", n), nil
}

func fibonacci(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return "", Invalidf("expected a non-negative integer index")
	}
	if n > maxFibonacciN {
		return "", Invalidf("index too large (max %d)", maxFibonacciN)
	}
	a, b := big.NewInt(0), big.NewInt(1)
	for i := 0; i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return fmt.Sprintf("F(%d) = %s", n, a), nil
}

func scaleBytes(n int64, unit float64, suffixes []string) string {
	if float64(n) < unit {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	i := -1
	for v >= unit && i < len(suffixes)-1 {
		v /= unit
		i++
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + suffixes[i]
}

// humanBytes formats a byte count with binary prefixes, e.g. "1.5 KiB".
func humanBytes(n int64) string {
	return scaleBytes(n, 1024, []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"})
}

func siBytes(n int64) string {
	return scaleBytes(n, 1000, []string{"kB", "MB", "GB", "TB", "PB", "EB"})
}

var (
	smallNumbers = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensNames  = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scaleNames = []string{"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion"}
)

func numberToWords(n int64) string {
	if n == 0 {
		return "zero"
	}
	u := uint64(n)
	prefix := ""
	if n < 0 {
		prefix = "minus "
		u = uint64(-(n + 1)) + 1
	}
	var groups []string
	for scale := 0; u > 0; scale++ {
		chunk := int(u % 1000)
		u /= 1000
		if chunk == 0 {
			continue
		}
		words := hundredsToWords(chunk)
		if scaleNames[scale] != "" {
			words += " " + scaleNames[scale]
		}
		groups = append([]string{words}, groups...)
	}
	return prefix + strings.Join(groups, " ")
}

func hundredsToWords(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, smallNumbers[n/100]+" hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		w := tensNames[n/10]
		if n%10 != 0 {
			w += "-" + smallNumbers[n%10]
		}
		parts = append(parts, w)
	case n > 0:
		parts = append(parts, smallNumbers[n])
	}
	return strings.Join(parts, " ")
}
