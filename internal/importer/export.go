package importer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/theirongolddev/obligo/internal/model"
)

// Export writes obligations then accounts as JSONL that Load reads back.
func Export(w io.Writer, obligations []model.Obligation, accounts []model.Account) error {
	bw := bufio.NewWriter(w)
	for _, o := range obligations {
		data, err := model.MarshalObligation(o)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", o.Info().ID, err)
		}
		if err := writeLine(bw, data); err != nil {
			return err
		}
	}
	for _, a := range accounts {
		data, err := json.Marshal(struct {
			Kind string `json:"kind"`
			model.Account
		}{KindAccount, a})
		if err != nil {
			return fmt.Errorf("exporting account %s: %w", a.ID, err)
		}
		if err := writeLine(bw, data); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
