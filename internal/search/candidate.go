package search

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Candidate is one raw entry returned by the upstream search endpoint.
type Candidate struct {
	INN               flexString      `json:"inn"`
	OGRN              flexString      `json:"ogrn"`
	RawOGRN           flexString      `json:"raw_ogrn"`
	Name              flexString      `json:"name"`
	RawName           flexString      `json:"raw_name"`
	Inactive          flexBool        `json:"inactive"`
	Address           flexString      `json:"address"`
	Region            flexString      `json:"region"`
	CEOName           flexString      `json:"ceo_name"`
	CEOType           flexString      `json:"ceo_type"`
	MainOKVEDID       flexString      `json:"main_okved_id"`
	OKVEDDescr        flexString      `json:"okved_descr"`
	OKPO              flexString      `json:"okpo"`
	AuthorizedCapital json.RawMessage `json:"authorized_capital"`
	RegDate           flexString      `json:"reg_date"`
	URL               flexString      `json:"url"`
}

// TaxID returns the cleaned tax identifier.
func (c Candidate) TaxID() string {
	return CleanIdentifier(string(c.INN))
}

// RegistrationNumber returns the cleaned registration number, preferring the
// highlighted field and falling back to the raw one.
func (c Candidate) RegistrationNumber() string {
	if v := CleanIdentifier(string(c.OGRN)); v != "" {
		return v
	}
	return CleanIdentifier(string(c.RawOGRN))
}

// DisplayName returns the unhighlighted name when present.
func (c Candidate) DisplayName() string {
	if v := strings.TrimSpace(string(c.RawName)); v != "" {
		return v
	}
	return strings.TrimSpace(string(c.Name))
}

// Status maps the inactive flag onto the record status.
func (c Candidate) Status() registry.Status {
	if c.Inactive {
		return registry.StatusLiquidated
	}
	return registry.StatusActive
}

// DetailURL resolves the candidate's relative page path against baseURL.
// It returns an empty string when the candidate carries no path.
func (c Candidate) DetailURL(baseURL string) string {
	path := strings.TrimSpace(string(c.URL))
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(baseURL, "/") + path
}

// Capital formats the authorized capital as "1 000 000 руб.".
func (c Candidate) Capital() string {
	return formatCapital(c.AuthorizedCapital)
}

// Fields returns the summary attributes carried by the candidate.
func (c Candidate) Fields(baseURL string) registry.Fields {
	f := registry.NewFields()
	f.SetString(registry.FieldName, c.DisplayName())
	f.SetString(registry.FieldRegistrationNumber, c.RegistrationNumber())
	f.SetString(registry.FieldAddress, string(c.Address))
	f.SetString(registry.FieldRegion, string(c.Region))
	f.SetString(registry.FieldRegistrationDate, string(c.RegDate))
	f.SetString(registry.FieldCEOName, string(c.CEOName))
	f.SetString(registry.FieldCEOTitle, string(c.CEOType))
	f.SetString(registry.FieldActivityCode, string(c.MainOKVEDID))
	f.SetString(registry.FieldActivityName, string(c.OKVEDDescr))
	f.SetString(registry.FieldOKPO, string(c.OKPO))
	f.SetString(registry.FieldCapital, c.Capital())
	f.SetString(registry.FieldURL, c.DetailURL(baseURL))
	return f
}

// Record builds the base record from the candidate's summary fields.
func (c Candidate) Record(baseURL string) registry.CompanyRecord {
	rec := registry.CompanyRecord{
		TaxID:  c.TaxID(),
		Status: c.Status(),
	}
	registry.Merge(&rec, c.Fields(baseURL))
	return rec
}

// Summary projects the candidate directly onto a search result.
func (c Candidate) Summary(baseURL string) registry.SearchResult {
	return registry.SearchResult{
		TaxID:              c.TaxID(),
		Name:               c.DisplayName(),
		RegistrationNumber: c.RegistrationNumber(),
		Address:            strings.TrimSpace(string(c.Address)),
		CEOName:            strings.TrimSpace(string(c.CEOName)),
		Status:             c.Status(),
		URL:                c.DetailURL(baseURL),
	}
}

func formatCapital(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return ""
		}
	}
	text = strings.TrimSpace(text)
	if text == "" || text == "0" || text == "false" {
		return ""
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return text
	}
	if amount.IsZero() {
		return ""
	}
	return groupThousands(amount.RoundBank(0).StringFixed(0)) + " руб."
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// flexString accepts JSON strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexBool accepts JSON booleans, numbers and numeric strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*b = false
		return nil
	case bytes.Equal(data, []byte("true")):
		*b = true
		return nil
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	text = strings.TrimSpace(text)
	if parsed, err := strconv.ParseFloat(text, 64); err == nil {
		*b = parsed != 0
		return nil
	}
	parsed, err := strconv.ParseBool(text)
	if err != nil {
		*b = text != ""
		return nil
	}
	*b = flexBool(parsed)
	return nil
}
