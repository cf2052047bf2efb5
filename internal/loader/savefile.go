// Package loader decodes election savefiles into the model types and rejects
// structurally invalid input.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/election-toolkit/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Wire types mirror the savefile JSON. Pointers distinguish a missing field
// from a zero value.
type wireCandidate struct {
	Name           string   `json:"name" validate:"required"`
	Party          string   `json:"party" validate:"required"`
	Votes          *float64 `json:"votes" validate:"required,gte=0"`
	ElectoralVotes *int     `json:"electoralVotes" validate:"omitempty,gte=0"`
	Incumbent      bool     `json:"incumbent"`
	Caucus         string   `json:"caucus"`
}

type wireCounty struct {
	Name  string          `json:"name" validate:"required"`
	Cands []wireCandidate `json:"cands" validate:"dive"`
}

type wireEntry struct {
	State          string          `json:"state" validate:"required"`
	District       *int            `json:"district" validate:"omitempty,gte=0"`
	Cands          []wireCandidate `json:"cands" validate:"dive"`
	Counties       []wireCounty    `json:"counties" validate:"dive"`
	ElectoralVotes *int            `json:"electoralVotes" validate:"omitempty,gte=0"`
}

// LoadFile reads and decodes a savefile from disk.
func LoadFile(path string) (*model.Savefile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sf, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: decode %s", path)
	}
	return sf, nil
}

// Decode reads a savefile. Three shapes are accepted:
//
//	{"president": [...], "senate": [...]}      races per election kind
//	{"elections": {"president": [...]}}        the same, wrapped
//	[...]                                      one race list, kind "default"
//
// Structural problems are returned as *model.SchemaError.
func Decode(r io.Reader) (*model.Savefile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read savefile")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, model.NewSchemaError("", "empty savefile", nil)
	}

	raw := make(map[string]json.RawMessage)
	switch data[0] {
	case '[':
		raw[string(model.KindDefault)] = data
	case '{':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, schemaFromJSON("", err)
		}
		if inner, ok := raw["elections"]; ok && len(raw) == 1 {
			raw = make(map[string]json.RawMessage)
			if err := json.Unmarshal(inner, &raw); err != nil {
				return nil, schemaFromJSON("elections", err)
			}
		}
	default:
		return nil, model.NewSchemaError("", "savefile must be a JSON object or array", nil)
	}

	sf := &model.Savefile{Elections: make(map[model.ElectionKind][]model.RaceEntry, len(raw))}
	seen := make(map[model.ElectionKind]string, len(raw))
	for kind, msg := range raw {
		k := model.ElectionKind(strings.ToLower(strings.TrimSpace(kind)))
		if prev, dup := seen[k]; dup {
			first, second := prev, kind
			if second < first {
				first, second = second, first
			}
			return nil, model.NewSchemaError(second, fmt.Sprintf("election kind duplicates %q", first), nil)
		}
		seen[k] = kind

		var entries []wireEntry
		if err := json.Unmarshal(msg, &entries); err != nil {
			return nil, schemaFromJSON(kind, err)
		}
		out := make([]model.RaceEntry, 0, len(entries))
		for i, e := range entries {
			path := fmt.Sprintf("%s[%d]", kind, i)
			if err := validate.Struct(e); err != nil {
				return nil, schemaFromValidation(path, err)
			}
			out = append(out, e.toModel())
		}
		sf.Elections[k] = out
	}

	return sf, nil
}

func (c wireCandidate) toModel() model.Candidate {
	out := model.Candidate{
		Name:      strings.TrimSpace(c.Name),
		Party:     strings.ToUpper(strings.TrimSpace(c.Party)),
		Votes:     *c.Votes,
		Incumbent: c.Incumbent,
		Caucus:    c.Caucus,
	}
	if c.ElectoralVotes != nil {
		out.ElectoralVotes = *c.ElectoralVotes
	}
	return out
}

func (e wireEntry) toModel() model.RaceEntry {
	out := model.RaceEntry{
		State:    strings.TrimSpace(e.State),
		District: e.District,
		Cands:    make([]model.Candidate, 0, len(e.Cands)),
	}
	for _, c := range e.Cands {
		out.Cands = append(out.Cands, c.toModel())
	}
	for _, county := range e.Counties {
		mc := model.County{Name: strings.TrimSpace(county.Name), Cands: make([]model.Candidate, 0, len(county.Cands))}
		for _, c := range county.Cands {
			mc.Cands = append(mc.Cands, c.toModel())
		}
		out.Counties = append(out.Counties, mc)
	}
	if e.ElectoralVotes != nil {
		out.ElectoralVotes = *e.ElectoralVotes
	}
	return out
}

func schemaFromJSON(path string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if path != "" && field != "" {
			field = path + "." + field
		} else if field == "" {
			field = path
		}
		return model.NewSchemaError(field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value), err)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return model.NewSchemaError(path, fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset), err)
	}
	return model.NewSchemaError(path, err.Error(), err)
}

func schemaFromValidation(path string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewSchemaError(path, err.Error(), err)
	}
	fe := verrs[0]

	// Namespace is "wireEntry.cands[0].votes"; drop the type name.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}

	msg := fe.Tag()
	switch fe.Tag() {
	case "required":
		msg = "required field missing"
	case "gte":
		msg = fmt.Sprintf("must be >= %s", fe.Param())
	}
	return model.NewSchemaError(path+"."+ns, msg, err)
}
