package orderdebug

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Station-Manager/errors"
)

// Category is a named group of log statements switched on and off together.
type Category string

const (
	CategoryBacktrace     Category = "backtrace"
	CategoryDuplicates    Category = "duplicates"
	CategoryPayment       Category = "payment"
	CategoryCart          Category = "cart"
	CategoryCheckout      Category = "checkout"
	CategoryEmails        Category = "emails"
	CategoryMetaChanges   Category = "meta-changes"
	CategoryStatusChanges Category = "status-changes"
)

var categories = []Category{
	CategoryBacktrace,
	CategoryDuplicates,
	CategoryPayment,
	CategoryCart,
	CategoryCheckout,
	CategoryEmails,
	CategoryMetaChanges,
	CategoryStatusChanges,
}

var categoryLabels = map[Category]string{
	CategoryBacktrace:     "Log Backtrace",
	CategoryDuplicates:    "Log Duplicate Orders",
	CategoryPayment:       "Log Payment Processing",
	CategoryCart:          "Log Cart Changes",
	CategoryCheckout:      "Log Checkout Process",
	CategoryEmails:        "Log Email Sending",
	CategoryMetaChanges:   "Log Meta Changes",
	CategoryStatusChanges: "Log Status Changes",
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory accepts a category name ("meta-changes") or its option key
// ("log_meta_changes").
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, c := range categories {
		if s == string(c) || s == c.OptionKey() {
			return c, true
		}
	}
	return emptyString, false
}

// OptionKey is the name of the category's field in the persisted settings.
func (c Category) OptionKey() string {
	return "log_" + strings.ReplaceAll(string(c), "-", "_")
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Settings holds the category switches plus the lists of host actions and
// filters that are logged when fired.
type Settings struct {
	Backtrace     bool     `json:"log_backtrace"`
	Duplicates    bool     `json:"log_duplicates"`
	Payment       bool     `json:"log_payment"`
	Cart          bool     `json:"log_cart"`
	Checkout      bool     `json:"log_checkout"`
	Emails        bool     `json:"log_emails"`
	MetaChanges   bool     `json:"log_meta_changes"`
	StatusChanges bool     `json:"log_status_changes"`
	Actions       []string `json:"log_actions"`
	Filters       []string `json:"log_filters"`
}

// DefaultSettings enables every category.
func DefaultSettings() Settings {
	return Settings{
		Backtrace:     true,
		Duplicates:    true,
		Payment:       true,
		Cart:          true,
		Checkout:      true,
		Emails:        true,
		MetaChanges:   true,
		StatusChanges: true,
		Actions:       []string{},
		Filters:       []string{},
	}
}

func (s *Settings) field(c Category) *bool {
	switch c {
	case CategoryBacktrace:
		return &s.Backtrace
	case CategoryDuplicates:
		return &s.Duplicates
	case CategoryPayment:
		return &s.Payment
	case CategoryCart:
		return &s.Cart
	case CategoryCheckout:
		return &s.Checkout
	case CategoryEmails:
		return &s.Emails
	case CategoryMetaChanges:
		return &s.MetaChanges
	case CategoryStatusChanges:
		return &s.StatusChanges
	default:
		return nil
	}
}

// Enabled reports the switch for c. Unknown categories are enabled.
func (s Settings) Enabled(c Category) bool {
	if p := s.field(c); p != nil {
		return *p
	}
	return true
}

// Set changes the switch for c and reports whether c is known.
func (s *Settings) Set(c Category, on bool) bool {
	p := s.field(c)
	if p == nil {
		return false
	}
	*p = on
	return true
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	out := s
	out.Actions = append([]string{}, s.Actions...)
	out.Filters = append([]string{}, s.Filters...)
	return out
}

// LogsAction reports whether the named host action is listed.
func (s Settings) LogsAction(name string) bool {
	return contains(s.Actions, name)
}

// LogsFilter reports whether the named host filter is listed.
func (s Settings) LogsFilter(name string) bool {
	return contains(s.Filters, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func (s Settings) Encode() ([]byte, error) {
	const op errors.Op = "orderdebug.Settings.Encode"
	data, err := json.Marshal(s.Clone())
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEncode)
	}
	return data, nil
}

// DecodeSettings always returns usable settings: fields missing from data keep
// their defaults, unknown fields are ignored, and switches accept booleans,
// numbers and the strings on/off, yes/no, true/false, 1/0. Fields that cannot
// be read keep their defaults and are named in the returned error.
func DecodeSettings(data []byte) (Settings, error) {
	const op errors.Op = "orderdebug.DecodeSettings"
	s := DefaultSettings()

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return s, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s, errors.New(op).Err(err).Msg(errMsgDecode)
	}

	var bad []string
	for _, c := range categories {
		v, ok := raw[c.OptionKey()]
		if !ok {
			continue
		}
		on, set, err := decodeFlag(v)
		if err != nil {
			bad = append(bad, c.OptionKey())
			continue
		}
		if set {
			s.Set(c, on)
		}
	}

	for key, dst := range map[string]*[]string{"log_actions": &s.Actions, "log_filters": &s.Filters} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		list, err := decodeList(v)
		if err != nil {
			bad = append(bad, key)
			continue
		}
		*dst = list
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return s, errors.New(op).Msg(errMsgDecode + " Unreadable fields: " + strings.Join(bad, ", "))
	}
	return s, nil
}

// decodeFlag reads a switch. set is false for JSON null.
func decodeFlag(v json.RawMessage) (on, set bool, err error) {
	var x any
	if err = json.Unmarshal(v, &x); err != nil {
		return false, false, err
	}
	switch t := x.(type) {
	case nil:
		return false, false, nil
	case bool:
		return t, true, nil
	case float64:
		return t != 0, true, nil
	case string:
		on, ok := ParseFlag(t)
		if !ok {
			return false, false, errors.New("orderdebug.decodeFlag").Msg("unrecognised switch value " + t)
		}
		return on, true, nil
	default:
		return false, false, errors.New("orderdebug.decodeFlag").Msg("switch must be a boolean")
	}
}

// ParseFlag reads the textual forms of a switch.
func ParseFlag(s string) (on, ok bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "on", "true", "yes", "checked":
		return true, true
	case "0", "off", "false", "no", emptyString:
		return false, true
	default:
		return false, false
	}
}

// decodeList accepts a JSON array of strings or one string separated by
// commas or newlines.
func decodeList(v json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return SplitList(strings.Join(list, "\n")), nil
	}
	var one string
	if err := json.Unmarshal(v, &one); err != nil {
		return nil, err
	}
	return SplitList(one), nil
}

// SplitList splits on commas and newlines, trims and drops empty and repeated
// names.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
		part = strings.TrimSpace(part)
		if part == emptyString || contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}
