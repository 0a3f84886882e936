// Command bgldbsh is a thin interactive shell over a store.Store, in the
// spirit of the teacher's own db REPL: meta commands, simple
// insert/get/delete/scan statements, nothing more. It is a demo front
// end, not part of the engine.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jonasvbiegel/bgldb/field"
	"github.com/jonasvbiegel/bgldb/pager"
	"github.com/jonasvbiegel/bgldb/store"
)

func main() {
	dbPath := flag.String("db", "bgldb.db", "path to the database file")
	configPath := flag.String("config", "", "path to a YAML store config (primary_key, key_kind, order)")
	primaryKey := flag.String("primary-key", "id", "primary key field name (ignored if -config is set)")
	keyKind := flag.String("key-kind", "uint64", "primary key kind: uint64 or string (ignored if -config is set)")
	order := flag.Uint("order", 64, "tree order (ignored if -config is set)")
	flag.Parse()

	logger := log.New(os.Stderr, "bgldbsh: ", log.LstdFlags)

	cfg, err := resolveConfig(*configPath, *primaryKey, *keyKind, uint8(*order))
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	src, err := pager.OpenFile(*dbPath)
	if err != nil {
		logger.Fatalf("open %s: %v", *dbPath, err)
	}
	defer src.Close()

	s, err := store.Open(src, cfg)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	logger.Printf("store %s open at %s (primary_key=%s key_kind=%s order=%d)", s.ID(), *dbPath, cfg.PrimaryKey, cfg.KeyKind, cfg.Order)

	runREPL(os.Stdin, os.Stdout, s, cfg, logger)
}

func resolveConfig(configPath, primaryKey, keyKindFlag string, order uint8) (store.Config, error) {
	if configPath != "" {
		return store.OpenConfigFile(configPath)
	}
	var kind field.Kind
	switch keyKindFlag {
	case "uint64":
		kind = field.KindUInt64
	case "string":
		kind = field.KindString
	default:
		return store.Config{}, fmt.Errorf("unknown -key-kind %q (want uint64 or string)", keyKindFlag)
	}
	return store.Config{PrimaryKey: primaryKey, KeyKind: kind, Order: order}, nil
}

func runREPL(in io.Reader, out io.Writer, s *store.Store, cfg store.Config, logger *log.Logger) {
	reader := bufio.NewReader(in)
	for {
		printPrompt()
		line, err := readInput(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Printf("read input: %v", err)
			}
			return
		}
		if line == "" {
			continue
		}

		if line[0] == '.' {
			switch handleMetaCommand(line) {
			case MetaCommandExit:
				return
			case MetaCommandUnrecognizedCommand:
				fmt.Fprintf(out, "unrecognized command %q\n", line)
			case MetaCommandSuccess:
				if line == ".help" {
					fmt.Fprintln(out, "commands: insert <key> name=value..., get <key>, delete <key>, scan, .stats, .exit")
				} else {
					printStats(out, s)
				}
			}
			continue
		}

		stmt, result, err := prepareStatement(line, cfg)
		switch result {
		case PrepareUnrecognizedStatement:
			fmt.Fprintf(out, "unrecognized statement %q\n", line)
			continue
		case PrepareSyntaxError:
			fmt.Fprintf(out, "syntax error: %v\n", err)
			continue
		}

		if err := executeStatement(out, s, stmt); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func executeStatement(out io.Writer, s *store.Store, stmt Statement) error {
	switch stmt.Type {
	case StatementInsert:
		if err := s.Insert(stmt.Record); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil
	case StatementGet:
		rec, found, err := s.Get(stmt.Key)
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(out, "(not found)")
			return nil
		}
		printRecord(out, rec)
		return nil
	case StatementDelete:
		removed, err := s.Delete(stmt.Key)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintln(out, "deleted")
		} else {
			fmt.Fprintln(out, "(not found)")
		}
		return nil
	case StatementScan:
		return scanAll(out, s)
	default:
		return fmt.Errorf("unhandled statement type %d", stmt.Type)
	}
}

func scanAll(out io.Writer, s *store.Store) error {
	cur, err := s.Scan()
	if err != nil {
		return err
	}
	for {
		ok, err := cur.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		rec, err := cur.Record()
		if err != nil {
			return err
		}
		printRecord(out, rec)
	}
}

func printRecord(out io.Writer, rec interface{ MarshalJSON() ([]byte, error) }) {
	b, err := rec.MarshalJSON()
	if err != nil {
		fmt.Fprintf(out, "<unprintable record: %v>\n", err)
		return
	}
	fmt.Fprintln(out, string(b))
}

func printStats(out io.Writer, s *store.Store) {
	stats, err := s.Stats()
	if err != nil {
		fmt.Fprintf(out, "stats: %v\n", err)
		return
	}
	fmt.Fprintf(out, "elements=%d pages=%d depth=%d\n", stats.ElementCount, stats.PageCount, stats.Depth)
}
