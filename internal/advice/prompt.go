package advice

import (
	"encoding/json"
	"fmt"
	"strings"

	"bumdes/internal/report"
)

const promptTemplate = `Bertindaklah sebagai konsultan keuangan profesional untuk Badan Usaha Milik Desa (BUMDes).
Saya akan memberikan ringkasan data keuangan per unit usaha.
Tolong berikan analisis singkat, poin-poin perbaikan efisiensi, dan saran strategi pengembangan usaha.
Gunakan Bahasa Indonesia yang formal namun mudah dipahami oleh pengurus desa.

Data Keuangan:
%s

Format jawaban:
1. **Analisis Kesehatan Keuangan**: (Singkat)
2. **Saran Efisiensi**: (Poin-poin)
3. **Rekomendasi Strategi**: (Ide pengembangan)
`

type promptFlow struct {
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
}

// BuildPrompt renders the per-unit summary into the consultant prompt. Amounts
// appear as plain JSON numbers, units in label order.
func BuildPrompt(summary report.UnitSummary) (string, error) {
	flows := make(map[string]promptFlow, len(summary))
	for label, f := range summary {
		flows[label] = promptFlow{
			Income:  json.Number(f.Income.String()),
			Expense: json.Number(f.Expense.String()),
		}
	}
	data, err := json.MarshalIndent(flows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(string(data))), nil
}
