package tableboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter converts a cell value into display text.
//
// Formatters must be pure: the same value always yields the same text.
// Missing values are passed as nil.
type Formatter func(value any) string

// FormatterFactory builds a [Formatter] from the argument part of a
// formatter spec (the text after the first colon, possibly empty).
type FormatterFactory func(arg string) (Formatter, error)

// FormatterRegistry maps formatter names to factories.
//
// Column descriptors reference formatters by spec string (for example
// "number:2" or "suffix: m³/s") so they stay serializable; the registry
// turns a spec back into a function. A FormatterRegistry is safe for
// concurrent use.
type FormatterRegistry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// DefaultFormatters is the registry used by [InferColumns], [NewColumn]
// and configuration loading.
var DefaultFormatters = NewFormatterRegistry()

// NewFormatterRegistry returns a registry populated with the built-in
// formatters:
//
//	identity, text      value as-is
//	suffix:<s>          value followed by s ("suffix: m³/s")
//	prefix:<s>          s followed by value
//	number:<n>[:<lang>] grouped decimal with n fraction digits
//	percent:<n>         ratio * 100 with n fraction digits and "%"
//	date:<layout>       reformat a date string with a Go time layout
//	map:<a=b,c=d>       replace whole values by lookup
//	upper, lower        Unicode case mapping
//	bool:<yes>/<no>     labels for true and false
func NewFormatterRegistry() *FormatterRegistry {
	r := &FormatterRegistry{factories: make(map[string]FormatterFactory)}
	r.factories["identity"] = identityFactory
	r.factories["text"] = identityFactory
	r.factories["suffix"] = suffixFactory
	r.factories["prefix"] = prefixFactory
	r.factories["number"] = numberFactory
	r.factories["percent"] = percentFactory
	r.factories["date"] = dateFactory
	r.factories["map"] = mapFactory
	r.factories["upper"] = upperFactory
	r.factories["lower"] = lowerFactory
	r.factories["bool"] = boolFactory
	return r
}

// Register adds or replaces a named formatter factory.
func (r *FormatterRegistry) Register(name string, factory FormatterFactory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("formatter name cannot be empty")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("formatter name %q cannot contain ':'", name)
	}
	if factory == nil {
		return fmt.Errorf("formatter %q: factory cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// Names returns the registered formatter names in no particular order.
func (r *FormatterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Resolve turns a formatter spec into a [Formatter].
//
// An empty spec resolves to the identity formatter. Returns an error
// wrapping [ErrUnknownFormatter] if the name is not registered, or the
// factory's error if the argument is invalid.
func (r *FormatterRegistry) Resolve(spec string) (Formatter, error) {
	name, arg := splitSpec(spec)
	if name == "" {
		return FormatValue, nil
	}

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatter, name)
	}

	f, err := factory(arg)
	if err != nil {
		return nil, fmt.Errorf("formatter %q: %w", spec, err)
	}
	return f, nil
}

// RegisterFormatter adds a formatter factory to [DefaultFormatters].
func RegisterFormatter(name string, factory FormatterFactory) error {
	return DefaultFormatters.Register(name, factory)
}

// splitSpec separates "name:arg". The name is trimmed; the argument is
// kept verbatim so suffixes can carry a leading space.
func splitSpec(spec string) (name, arg string) {
	name, arg, _ = strings.Cut(spec, ":")
	return strings.TrimSpace(name), arg
}

// FormatValue returns the default display text of a value.
//
// nil renders as an empty string, floats use the shortest exact
// representation, and nested arrays or objects render as compact JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// toFloat reports the numeric value of v, accepting numeric strings.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func identityFactory(string) (Formatter, error) {
	return FormatValue, nil
}

func suffixFactory(arg string) (Formatter, error) {
	return func(v any) string {
		if v == nil {
			return ""
		}
		return FormatValue(v) + arg
	}, nil
}

func prefixFactory(arg string) (Formatter, error) {
	return func(v any) string {
		if v == nil {
			return ""
		}
		return arg + FormatValue(v)
	}, nil
}

func parseDigits(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 12 {
		return 0, fmt.Errorf("fraction digits must be an integer between 0 and 12, got %q", s)
	}
	return n, nil
}

func numberFactory(arg string) (Formatter, error) {
	digitsArg, langArg, _ := strings.Cut(arg, ":")
	digits, err := parseDigits(digitsArg)
	if err != nil {
		return nil, err
	}

	tag := language.English
	if strings.TrimSpace(langArg) != "" {
		tag, err = language.Parse(strings.TrimSpace(langArg))
		if err != nil {
			return nil, fmt.Errorf("invalid language tag %q: %w", langArg, err)
		}
	}

	p := message.NewPrinter(tag)
	verb := "%." + strconv.Itoa(digits) + "f"
	return func(v any) string {
		f, ok := toFloat(v)
		if !ok {
			return FormatValue(v)
		}
		return p.Sprintf(verb, f)
	}, nil
}

func percentFactory(arg string) (Formatter, error) {
	digits, err := parseDigits(arg)
	if err != nil {
		return nil, err
	}

	p := message.NewPrinter(language.English)
	verb := "%." + strconv.Itoa(digits) + "f%%"
	return func(v any) string {
		f, ok := toFloat(v)
		if !ok {
			return FormatValue(v)
		}
		return p.Sprintf(verb, f*100)
	}, nil
}

// inputDateLayouts are tried in order when parsing date values.
var inputDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"2006-01-02T15:04:05",
}

func dateFactory(arg string) (Formatter, error) {
	layout := strings.TrimSpace(arg)
	if layout == "" {
		layout = time.DateOnly
	}
	return func(v any) string {
		s, ok := v.(string)
		if !ok {
			return FormatValue(v)
		}
		for _, in := range inputDateLayouts {
			if t, err := time.Parse(in, s); err == nil {
				return t.Format(layout)
			}
		}
		return s
	}, nil
}

func mapFactory(arg string) (Formatter, error) {
	lookup := make(map[string]string)
	for _, pair := range strings.Split(arg, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("map entry %q must be of the form value=label", pair)
		}
		lookup[strings.TrimSpace(from)] = strings.TrimSpace(to)
	}
	if len(lookup) == 0 {
		return nil, fmt.Errorf("map formatter requires at least one value=label entry")
	}

	return func(v any) string {
		text := FormatValue(v)
		if label, ok := lookup[text]; ok {
			return label
		}
		return text
	}, nil
}

// Casers hold state and are not safe for concurrent use, so a new one is
// created per call.
func upperFactory(string) (Formatter, error) {
	return func(v any) string {
		return cases.Upper(language.Und).String(FormatValue(v))
	}, nil
}

func lowerFactory(string) (Formatter, error) {
	return func(v any) string {
		return cases.Lower(language.Und).String(FormatValue(v))
	}, nil
}

func boolFactory(arg string) (Formatter, error) {
	yes, no := "Yes", "No"
	if strings.TrimSpace(arg) != "" {
		var ok bool
		yes, no, ok = strings.Cut(arg, "/")
		if !ok {
			return nil, fmt.Errorf("bool formatter argument must be of the form yes/no, got %q", arg)
		}
		yes, no = strings.TrimSpace(yes), strings.TrimSpace(no)
	}
	return func(v any) string {
		b, ok := v.(bool)
		if !ok {
			return FormatValue(v)
		}
		if b {
			return yes
		}
		return no
	}, nil
}
