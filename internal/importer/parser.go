package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/obligo/internal/model"
)

// KindAccount marks account records in an export.
const KindAccount = "account"

// BadRecord locates a record that could not be imported.
type BadRecord struct {
	File string
	// Line is the 1-based line for JSONL, or the 1-based element index for a JSON array.
	Line int
	Err  error
}

func (b BadRecord) Error() string {
	return fmt.Sprintf("%s:%d: %v", b.File, b.Line, b.Err)
}

// FileResult holds the output of parsing a single export file.
type FileResult struct {
	Obligations []model.Obligation
	Accounts    []model.Account
	Bad         []BadRecord
	Err         error
}

// ParseFile reads one export. A file whose first non-blank byte is '[' is a JSON array of
// records; anything else is read as one record per line.
func ParseFile(path string) FileResult {
	f, err := os.Open(path)
	if err != nil {
		return FileResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReaderSize(f, 64*1024)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return FileResult{}
	}
	if err != nil {
		return FileResult{Err: err}
	}
	if first == '[' {
		return parseArray(path, br)
	}
	return parseLines(path, br)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func parseArray(path string, r io.Reader) FileResult {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return FileResult{Err: fmt.Errorf("decoding %s: %w", path, err)}
	}
	var res FileResult
	for i, rec := range raw {
		res.add(path, i+1, rec)
	}
	return res
}

func parseLines(path string, r io.Reader) FileResult {
	var res FileResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		rec := bytes.TrimSpace(scanner.Bytes())
		if len(rec) == 0 {
			continue
		}
		res.add(path, line, rec)
	}
	if err := scanner.Err(); err != nil {
		res.Err = fmt.Errorf("reading %s: %w", path, err)
	}
	return res
}

func (res *FileResult) add(path string, line int, rec []byte) {
	ob, acc, err := DecodeRecord(rec)
	switch {
	case err != nil:
		res.Bad = append(res.Bad, BadRecord{File: path, Line: line, Err: err})
	case ob != nil:
		res.Obligations = append(res.Obligations, ob)
	default:
		res.Accounts = append(res.Accounts, acc)
	}
}

// DecodeRecord decodes one export record into either an obligation or an account and
// validates it. Records without a status are taken as pending. An untyped record with a
// serviceName is an account.
func DecodeRecord(rec []byte) (model.Obligation, model.Account, error) {
	var head struct {
		Kind        string `json:"kind"`
		Type        string `json:"type"`
		ServiceName string `json:"serviceName"`
	}
	if err := json.Unmarshal(rec, &head); err != nil {
		return nil, model.Account{}, fmt.Errorf("decoding record: %w", err)
	}

	if head.Kind == KindAccount || head.Type == KindAccount ||
		(head.Kind == "" && head.Type == "" && head.ServiceName != "") {
		var a model.Account
		if err := json.Unmarshal(rec, &a); err != nil {
			return nil, model.Account{}, fmt.Errorf("decoding account: %w", err)
		}
		if err := a.Validate(); err != nil {
			return nil, model.Account{}, err
		}
		return nil, a, nil
	}

	ob, err := model.UnmarshalObligation(rec)
	if err != nil {
		return nil, model.Account{}, err
	}
	if m := ob.Info(); m.Status == "" {
		m.Status = model.StatusPending
		ob = ob.WithMeta(m)
	}
	if err := ob.Validate(); err != nil {
		return nil, model.Account{}, err
	}
	return ob, model.Account{}, nil
}
