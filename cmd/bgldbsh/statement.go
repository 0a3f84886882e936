package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/record"
	"github.com/jonasvbiegel/bgldb/store"
)

// StatementType is which Store operation a parsed line drives.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementGet
	StatementDelete
	StatementScan
)

// PrepareResult reports whether prepareStatement understood the line.
type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareUnrecognizedStatement
	PrepareSyntaxError
)

// Statement is a parsed shell line, ready for executeStatement.
type Statement struct {
	Type   StatementType
	Key    field.Value
	Record record.Record
}

// prepareStatement parses one shell line against cfg's key kind.
// Recognized forms:
//
//	insert <key> name=value [name=value ...]
//	get <key>
//	delete <key>
//	scan
func prepareStatement(line string, cfg store.Config) (Statement, PrepareResult, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Statement{}, PrepareUnrecognizedStatement, nil
	}

	switch fields[0] {
	case "insert":
		return prepareInsert(fields[1:], cfg)
	case "get":
		return prepareKeyOnly(StatementGet, fields[1:], cfg)
	case "delete":
		return prepareKeyOnly(StatementDelete, fields[1:], cfg)
	case "scan":
		return Statement{Type: StatementScan}, PrepareSuccess, nil
	default:
		return Statement{}, PrepareUnrecognizedStatement, nil
	}
}

func prepareKeyOnly(typ StatementType, args []string, cfg store.Config) (Statement, PrepareResult, error) {
	if len(args) != 1 {
		return Statement{}, PrepareSyntaxError, fmt.Errorf("expected exactly one key argument")
	}
	key, err := parseKey(args[0], cfg.KeyKind)
	if err != nil {
		return Statement{}, PrepareSyntaxError, err
	}
	return Statement{Type: typ, Key: key}, PrepareSuccess, nil
}

func prepareInsert(args []string, cfg store.Config) (Statement, PrepareResult, error) {
	if len(args) < 2 {
		return Statement{}, PrepareSyntaxError, fmt.Errorf("insert requires a key and at least one name=value field")
	}
	key, err := parseKey(args[0], cfg.KeyKind)
	if err != nil {
		return Statement{}, PrepareSyntaxError, err
	}

	rec := make(record.Record, 0, len(args)-1)
	for _, pair := range args[1:] {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return Statement{}, PrepareSyntaxError, fmt.Errorf("field %q is not name=value", pair)
		}
		v, err := parseFieldValue(name, raw, cfg)
		if err != nil {
			return Statement{}, PrepareSyntaxError, err
		}
		rec = append(rec, record.Field{Name: name, Value: v})
	}

	if _, ok := rec.Get(cfg.PrimaryKey); !ok {
		rec = append(record.Record{{Name: cfg.PrimaryKey, Value: key}}, rec...)
	}

	return Statement{Type: StatementInsert, Key: key, Record: rec}, PrepareSuccess, nil
}

// parseFieldValue guesses a field's kind from whether it parses as a
// uint64, falling back to a string. The primary key field always uses
// the store's declared key kind (parsed with parseKey).
func parseFieldValue(name, raw string, cfg store.Config) (field.Value, error) {
	if name == cfg.PrimaryKey {
		return parseKey(raw, cfg.KeyKind)
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return field.UInt64(n), nil
	}
	return field.String(raw)
}

func parseKey(raw string, kind field.Kind) (field.Value, error) {
	switch kind {
	case field.KindUInt64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return field.Value{}, fmt.Errorf("key %q is not a valid uint64: %w", raw, err)
		}
		return field.UInt64(n), nil
	default:
		return field.String(raw)
	}
}
