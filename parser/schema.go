package parser

import (
	"strconv"
	"strings"

	"github.com/groveml/grove/pkg/errors"
)

// scalarKind is the declared scalar type of a model-file value.
type scalarKind int

const (
	kindInt scalarKind = iota
	kindFloat
	kindString
)

// valueSpec declares how a recognized key's value is decoded: its scalar
// type, whether the value is a space-separated list, and whether the key may
// be absent from the block.
type valueSpec struct {
	kind     scalarKind
	isList   bool
	nullable bool
}

// headerSchema covers the general-information block at the top of the file.
var headerSchema = map[string]valueSpec{
	"max_feature_idx": {kind: kindInt},
	"version":         {kind: kindString},
	"feature_infos":   {kind: kindString, isList: true},
	"objective":       {kind: kindString, isList: true},
}

// treeSchema covers one per-tree block. cat_threshold and cat_boundaries are
// only written by LightGBM when the tree contains categorical splits.
var treeSchema = map[string]valueSpec{
	"Tree":           {kind: kindInt},
	"num_leaves":     {kind: kindInt},
	"num_cat":        {kind: kindInt},
	"split_feature":  {kind: kindInt, isList: true},
	"threshold":      {kind: kindFloat, isList: true},
	"decision_type":  {kind: kindInt, isList: true},
	"left_child":     {kind: kindInt, isList: true},
	"right_child":    {kind: kindInt, isList: true},
	"leaf_value":     {kind: kindFloat, isList: true},
	"cat_threshold":  {kind: kindInt, isList: true, nullable: true},
	"cat_boundaries": {kind: kindInt, isList: true, nullable: true},
}

// decodeBlock parses a block's key=value lines against a schema. Unknown keys
// are skipped so newer LightGBM versions stay readable. Nullable keys absent
// from the block decode to a nil entry; a missing non-nullable key or a token
// that fails scalar coercion is fatal.
//
// Values are stored as int, float64, string, []int, []float64, or []string
// according to the schema entry, with nil marking an absent nullable key.
func decodeBlock(lines []string, schema map[string]valueSpec, blockIndex int) (map[string]interface{}, error) {
	decoded := make(map[string]interface{}, len(schema))
	for _, line := range lines {
		// initial marker line of the header block
		if line == "tree" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, errors.NewFormatError("", line, "expected key=value line")
		}
		spec, ok := schema[key]
		if !ok {
			continue
		}

		parsed, err := coerce(key, value, spec, blockIndex)
		if err != nil {
			return nil, err
		}
		decoded[key] = parsed
	}

	for key, spec := range schema {
		if _, ok := decoded[key]; ok {
			continue
		}
		if !spec.nullable {
			return nil, errors.NewSchemaViolationError(key, blockIndex, "", "non-nullable key not found")
		}
		decoded[key] = nil
	}
	return decoded, nil
}

// coerce converts the raw value text to the declared Go type. List values are
// split on single spaces; an empty value is an empty list, not an error.
func coerce(key, value string, spec valueSpec, blockIndex int) (interface{}, error) {
	if !spec.isList {
		return coerceScalar(key, value, spec.kind, blockIndex)
	}

	if value == "" {
		switch spec.kind {
		case kindInt:
			return []int{}, nil
		case kindFloat:
			return []float64{}, nil
		default:
			return []string{}, nil
		}
	}

	tokens := strings.Split(value, " ")
	switch spec.kind {
	case kindInt:
		out := make([]int, len(tokens))
		for i, tok := range tokens {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, errors.NewSchemaViolationError(key, blockIndex, tok, "cannot parse int")
			}
			out[i] = v
		}
		return out, nil
	case kindFloat:
		out := make([]float64, len(tokens))
		for i, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, errors.NewSchemaViolationError(key, blockIndex, tok, "cannot parse float")
			}
			out[i] = v
		}
		return out, nil
	default:
		return tokens, nil
	}
}

func coerceScalar(key, value string, kind scalarKind, blockIndex int) (interface{}, error) {
	switch kind {
	case kindInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.NewSchemaViolationError(key, blockIndex, value, "cannot parse int")
		}
		return v, nil
	case kindFloat:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.NewSchemaViolationError(key, blockIndex, value, "cannot parse float")
		}
		return v, nil
	default:
		return value, nil
	}
}

// typed accessors for decoded blocks. The schema guarantees the dynamic type,
// so a mismatch here is a programming error, not bad input.

func decodedInt(decoded map[string]interface{}, key string) int {
	return decoded[key].(int)
}

func decodedString(decoded map[string]interface{}, key string) string {
	return decoded[key].(string)
}

func decodedStrings(decoded map[string]interface{}, key string) []string {
	if decoded[key] == nil {
		return nil
	}
	return decoded[key].([]string)
}

func decodedInts(decoded map[string]interface{}, key string) []int {
	if decoded[key] == nil {
		return nil
	}
	return decoded[key].([]int)
}

func decodedFloats(decoded map[string]interface{}, key string) []float64 {
	if decoded[key] == nil {
		return nil
	}
	return decoded[key].([]float64)
}
