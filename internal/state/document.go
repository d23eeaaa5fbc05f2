package state

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument marks a persisted state that cannot be trusted.
var ErrInvalidDocument = errors.New("invalid trading state document")

//go:embed schema/trading_state.schema.json
var documentSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("trading_state.schema.json", bytes.NewReader([]byte(documentSchemaJSON))); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("trading_state.schema.json")
	})
	return compiledSchema, schemaErr
}

// Document is the on-disk layout: three parallel maps keyed by asset.
type Document struct {
	Holdings        numberMap `json:"holdings" yaml:"holdings"`
	BuyPrices       numberMap `json:"buy_prices" yaml:"buy_prices"`
	ReferencePrices numberMap `json:"reference_prices" yaml:"reference_prices"`
}

// numberMap encodes decimals as bare numbers rather than quoted strings.
type numberMap map[string]decimal.Decimal

func (m numberMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(m))
	for k, v := range m {
		out[k] = json.Number(v.String())
	}
	return json.Marshal(out)
}

func (m numberMap) MarshalYAML() (any, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: m[k].String()},
		)
	}
	return node, nil
}

// NewDocument flattens st into the three-map layout.
func NewDocument(st *TradingState) Document {
	doc := Document{
		Holdings:        numberMap{},
		BuyPrices:       numberMap{},
		ReferencePrices: numberMap{},
	}
	for _, asset := range st.Assets() {
		as := st.Get(asset)
		if as.Reference.Valid {
			doc.ReferencePrices[asset] = as.Reference.Decimal
		}
		if as.Position != nil {
			doc.Holdings[asset] = as.Position.Amount
			doc.BuyPrices[asset] = as.Position.BuyPrice
		}
	}
	return doc
}

// State rebuilds the trading state. Holdings and buy prices must name the
// same assets and every value must be positive.
func (d Document) State() (*TradingState, error) {
	for asset := range d.Holdings {
		if _, ok := d.BuyPrices[asset]; !ok {
			return nil, fmt.Errorf("%w: holding of %s has no buy price", ErrInvalidDocument, asset)
		}
	}
	for asset := range d.BuyPrices {
		if _, ok := d.Holdings[asset]; !ok {
			return nil, fmt.Errorf("%w: buy price of %s has no holding", ErrInvalidDocument, asset)
		}
	}
	st := New()
	for asset, ref := range d.ReferencePrices {
		if !ref.IsPositive() {
			return nil, fmt.Errorf("%w: reference price of %s is %s", ErrInvalidDocument, asset, ref)
		}
		st.assets[asset] = AssetState{Reference: decimal.NewNullDecimal(ref)}
	}
	for asset, amount := range d.Holdings {
		price := d.BuyPrices[asset]
		if !amount.IsPositive() || !price.IsPositive() {
			return nil, fmt.Errorf("%w: holding of %s is %s at %s", ErrInvalidDocument, asset, amount, price)
		}
		as := st.assets[asset]
		as.Position = &Position{Amount: amount, BuyPrice: price}
		st.assets[asset] = as
	}
	return st, nil
}

// EncodeJSON renders the document with 4-space indentation.
func EncodeJSON(st *TradingState) ([]byte, error) {
	raw, err := json.MarshalIndent(NewDocument(st), "", "    ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

func EncodeYAML(st *TradingState) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(NewDocument(st)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON validates raw against the document schema before decoding it.
func DecodeJSON(raw []byte) (*TradingState, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validateGeneric(generic); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.State()
}

func DecodeYAML(raw []byte) (*TradingState, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if generic == nil {
		return New(), nil
	}
	if err := validateGeneric(generic); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.State()
}

func validateGeneric(v any) error {
	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("compile state schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
