package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors raised by metrics fetchers.
var (
	// ErrTransport marks a network or non-2xx failure talking to the metrics source.
	ErrTransport = errors.New("dashboard: metrics transport failure")
	// ErrMalformedPayload marks a response that arrived but could not be decoded at all.
	ErrMalformedPayload = errors.New("dashboard: malformed metrics payload")
)

// Number decodes leniently: JSON numbers, numeric strings and null are accepted,
// anything else decodes to zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(parseNumber(data))
	return nil
}

// Float returns n as float64.
func (n Number) Float() float64 { return float64(n) }

func parseNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RawPoint is one record of an upstream named series. Value holds the "value" field and
// Fields any other numeric field the producer attached.
type RawPoint struct {
	Name   string
	Value  float64
	Fields map[string]float64
}

// UnmarshalJSON accepts any object with a name; malformed records decode to an empty point.
func (p *RawPoint) UnmarshalJSON(data []byte) error {
	*p = RawPoint{}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	for key, raw := range obj {
		switch key {
		case "name":
			var name string
			if err := json.Unmarshal(raw, &name); err == nil {
				p.Name = name
			} else {
				p.Name = strings.Trim(string(bytes.TrimSpace(raw)), `"`)
			}
		case "value":
			p.Value = parseNumber(raw)
		default:
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
				continue
			}
			if p.Fields == nil {
				p.Fields = make(map[string]float64)
			}
			p.Fields[key] = parseNumber(raw)
		}
	}
	return nil
}

// MarshalJSON flattens the point back to the upstream shape.
func (p RawPoint) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		obj[k] = v
	}
	obj["name"] = p.Name
	obj["value"] = p.Value
	return json.Marshal(obj)
}

// Series is a list of raw points that tolerates a non-array value.
type Series []RawPoint

// UnmarshalJSON implements json.Unmarshaler.
func (s *Series) UnmarshalJSON(data []byte) error {
	var points []RawPoint
	if err := json.Unmarshal(data, &points); err != nil {
		*s = nil
		return nil
	}
	*s = points
	return nil
}

// RawIncidents groups the incident tracking block of a payload.
type RawIncidents struct {
	Total    Number `json:"total"`
	Open     Number `json:"open"`
	Resolved Number `json:"resolved"`
	ByType   Series `json:"byType"`
	ByMonth  Series `json:"byMonth"`
}

// UnmarshalJSON tolerates a non-object incidents block.
func (i *RawIncidents) UnmarshalJSON(data []byte) error {
	type alias RawIncidents
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		*i = RawIncidents{}
		return nil
	}
	*i = RawIncidents(decoded)
	return nil
}

// RawPeriodPayload is the upstream response for one date range. Every field is optional.
type RawPeriodPayload struct {
	TotalEmails      Number `json:"totalEmails"`
	EmailsManual     Number `json:"emailsManual"`
	MTTRAverage      Number `json:"mttrPromedio"`
	SLA10Min         Number `json:"sla10min"`
	AvgResponseTime  Number `json:"avgResponseTime"`
	UpsellingRevenue Number `json:"upsellingRevenue"`
	SavingsEuros     Number `json:"ahorroEuros"`

	Volume                  Series       `json:"volume"`
	MTTR                    Series       `json:"mttr"`
	Manual                  Series       `json:"manual"`
	SLABuckets              Series       `json:"slaTram"`
	Sentiment               Series       `json:"sentiment"`
	Language                Series       `json:"language"`
	Category                Series       `json:"category"`
	UpsellingRevenueByMonth Series       `json:"upsellingRevenueByMonth"`
	UpsellingByMonth        Series       `json:"upsellingByMonth"`
	Incidents               RawIncidents `json:"incidencias"`
}

// DecodePayload parses a metrics response body. Only a body that is not a JSON object
// at all is rejected, with ErrMalformedPayload.
func DecodePayload(data []byte) (*RawPeriodPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedPayload
	}
	var payload RawPeriodPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}
	return &payload, nil
}
