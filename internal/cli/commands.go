package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bumdes/internal/core"
	"bumdes/internal/report"
)

// AppLoader opens the application for one command invocation.
type AppLoader func(ctx context.Context) (*App, error)

// NewRootCommand creates the bumdesctl command tree.
func NewRootCommand(load AppLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bumdesctl",
		Short: "Kelola buku kas BUMDes dari terminal",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newUnitsCommand(load),
		newListCommand(load),
		newAddCommand(load, time.Now),
		newRemoveCommand(load),
		newReportCommand(load),
		newAdviceCommand(load),
	)
	return rootCmd
}

// withApp opens the app, runs fn and closes the app again.
func withApp(cmd *cobra.Command, load AppLoader, fn func(*App) error) error {
	app, err := load(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func newUnitsCommand(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "Daftar unit usaha",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(app *App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAMA\tDESKRIPSI")
				for _, u := range app.Store.Units() {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newListCommand(load AppLoader) *cobra.Command {
	var unitID, typ string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Tampilkan transaksi, terbaru dicatat lebih dulu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var want core.TransactionType
			if typ != "" {
				t, err := core.ParseTransactionType(typ)
				if err != nil {
					return err
				}
				want = t
			}
			return withApp(cmd, load, func(app *App) error {
				label := report.UnitLabeler(app.Store.Units())
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TANGGAL\tKETERANGAN\tUNIT\tKATEGORI\tJENIS\tJUMLAH\tID")
				for _, tx := range app.Store.List() {
					if unitID != "" && tx.UnitID != unitID {
						continue
					}
					if want != "" && tx.Type != want {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						tx.Date, tx.Description, label(tx.UnitID), tx.Category, tx.Type, report.FormatRupiah(tx.Amount), tx.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&unitID, "unit", "", "hanya unit dengan id ini")
	cmd.Flags().StringVar(&typ, "type", "", "INCOME atau EXPENSE")
	return cmd
}

func newAddCommand(load AppLoader, now func() time.Time) *cobra.Command {
	var date, description, amount, typ, category, unitID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Catat transaksi baru",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNewTransaction(date, description, amount, typ, category, unitID, now())
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(app *App) error {
				tx, err := app.Store.Add(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Transaksi dicatat: %s (%s %s)\n", tx.ID, tx.Type, report.FormatRupiah(tx.Amount))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "tanggal YYYY-MM-DD (default hari ini)")
	cmd.Flags().StringVar(&description, "description", "", "keterangan (wajib)")
	cmd.Flags().StringVar(&amount, "amount", "", "jumlah dalam rupiah (wajib)")
	cmd.Flags().StringVar(&typ, "type", "", "INCOME atau EXPENSE (wajib)")
	cmd.Flags().StringVar(&category, "category", "", "kategori (default "+core.DefaultCategory+")")
	cmd.Flags().StringVar(&unitID, "unit", "", "id unit usaha (wajib)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

func parseNewTransaction(date, description, amount, typ, category, unitID string, now time.Time) (core.NewTransaction, error) {
	d := core.NewDate(now.Year(), int(now.Month()), now.Day())
	if date != "" {
		parsed, err := core.ParseDate(date)
		if err != nil {
			return core.NewTransaction{}, err
		}
		d = parsed
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.NewTransaction{}, fmt.Errorf("%w: %q", err, amount)
	}
	t, err := core.ParseTransactionType(typ)
	if err != nil {
		return core.NewTransaction{}, err
	}
	return core.NewTransaction{
		Date:        d,
		Description: description,
		Amount:      a,
		Type:        t,
		Category:    category,
		UnitID:      unitID,
	}, nil
}

func newRemoveCommand(load AppLoader) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Hapus transaksi",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd, load, func(app *App) error {
				tx, ok := app.Store.Get(id)
				if !ok {
					return fmt.Errorf("transaksi %s tidak ditemukan", id)
				}
				if !yes {
					prompt := fmt.Sprintf("Hapus transaksi %q (%s)?", tx.Description, report.FormatRupiah(tx.Amount))
					confirmed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
					if err != nil {
						return err
					}
					if !confirmed {
						fmt.Fprintln(cmd.OutOrStdout(), "Dibatalkan.")
						return nil
					}
				}
				if !app.Store.Remove(cmd.Context(), id) {
					return fmt.Errorf("transaksi %s tidak ditemukan", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Transaksi %s dihapus.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "hapus tanpa konfirmasi")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "ya", "yes":
		return true, nil
	}
	return false, nil
}

func newReportCommand(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Ringkasan keuangan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(app *App) error {
				snap := report.Build(app.Store.List(), app.Store.Units())
				return writeReport(cmd.OutOrStdout(), snap)
			})
		},
	}
}

func writeReport(out io.Writer, snap report.Snapshot) error {
	t := snap.Totals
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total Pemasukan\t%s\n", report.FormatRupiah(t.Income))
	fmt.Fprintf(w, "Total Pengeluaran\t%s\n", report.FormatRupiah(t.Expense))
	fmt.Fprintf(w, "Saldo\t%s\n", report.FormatRupiah(t.Balance))
	fmt.Fprintf(w, "Margin\t%s%%\n", t.MarginRounded().StringFixed(1))
	fmt.Fprintf(w, "Transaksi\t%d\n", snap.Count)

	if len(snap.Series) > 0 {
		fmt.Fprintln(w, "\nBULAN\tPEMASUKAN\tPENGELUARAN")
		for _, p := range snap.Series {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Label, report.FormatRupiah(p.Income), report.FormatRupiah(p.Expense))
		}
	}

	if len(snap.UnitBreakdown) > 0 {
		fmt.Fprintln(w, "\nUNIT\tPEMASUKAN")
		for _, u := range report.SortByIncomeDesc(snap.UnitBreakdown) {
			fmt.Fprintf(w, "%s\t%s\n", u.Label, report.FormatRupiah(u.Income))
		}
	}
	return w.Flush()
}

func newAdviceCommand(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "advice",
		Short: "Minta analisis keuangan singkat dari layanan AI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(app *App) error {
				res := app.Advisor.Advise(cmd.Context(), app.Store.List(), app.Store.Units())
				fmt.Fprintln(cmd.OutOrStdout(), res.Message())
				return nil
			})
		},
	}
}
