package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/iho/giftledger/internal/adapter/http/dto"
	"github.com/iho/giftledger/internal/domain"
)

const (
	nameWidth        = 16
	affiliationWidth = 16
	noteWidth        = 20
	timeLayout       = "2006-01-02 15:04"
)

// entryForm holds the fields of one gift as typed by the user.
type entryForm struct {
	Name        string
	Amount      string
	Affiliation string
	Note        string
}

// Replaced in tests; both need a terminal.
var (
	runEntryForm  = promptEntryForm
	confirmDelete = promptYesNo
)

func addCmd() *cobra.Command {
	var (
		form        entryForm
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a gift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if err := runEntryForm(&form); err != nil {
					return err
				}
			}

			client := newAPIClient()
			ctx := cmd.Context()

			var token dto.FormTokenResponse
			if err := client.doJSON(ctx, http.MethodGet, "/api/v1/form-token", nil, nil, &token); err != nil {
				return fmt.Errorf("get form token: %w", err)
			}

			header := http.Header{}
			header.Set(idempotencyHeader, token.Token)

			var created dto.EntryResponse
			err := client.doJSON(ctx, http.MethodPost, "/api/v1/entries", dto.CreateEntryRequest{
				Name:        form.Name,
				Affiliation: form.Affiliation,
				Amount:      dto.Amount(form.Amount),
				Note:        form.Note,
			}, header, &created)
			if err != nil {
				return err
			}

			if asJSON {
				printJSON(created)
				return nil
			}
			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("#%d %s %s", created.Seq, created.Name, created.Amount.String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Giver's name")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "Amount in the configured unit")
	cmd.Flags().StringVar(&form.Affiliation, "affiliation", "", "Relationship or group")
	cmd.Flags().StringVar(&form.Note, "note", "", "Free-form note")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for the fields")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the created entry as JSON")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		order  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List gifts with running totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseSortOrder(order, domain.Descending); err != nil {
				return err
			}

			var list dto.ListEntriesResponse
			path := "/api/v1/entries?" + url.Values{"order": {order}}.Encode()
			if err := newAPIClient().doJSON(cmd.Context(), http.MethodGet, path, nil, nil, &list); err != nil {
				return err
			}

			if asJSON {
				printJSON(list)
				return nil
			}
			renderEntries(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", string(domain.Descending), "Sort order: asc or desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response as JSON")

	return cmd
}

func updateCmd() *cobra.Command {
	var form entryForm

	cmd := &cobra.Command{
		Use:   "update <seq>",
		Short: "Edit a recorded gift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := parseSeq(args[0])
			if err != nil {
				return err
			}

			var req dto.UpdateEntryRequest
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = &form.Name
			}
			if flags.Changed("affiliation") {
				req.Affiliation = &form.Affiliation
			}
			if flags.Changed("amount") {
				amount := dto.Amount(form.Amount)
				req.Amount = &amount
			}
			if flags.Changed("note") {
				req.Note = &form.Note
			}
			if req == (dto.UpdateEntryRequest{}) {
				return errors.New("nothing to update: pass at least one of --name, --affiliation, --amount, --note")
			}

			var updated dto.EntryResponse
			path := fmt.Sprintf("/api/v1/entries/%d", seq)
			if err := newAPIClient().doJSON(cmd.Context(), http.MethodPatch, path, req, nil, &updated); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("#%d %s %s", updated.Seq, updated.Name, updated.Amount.String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "New name")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "New amount")
	cmd.Flags().StringVar(&form.Affiliation, "affiliation", "", "New affiliation")
	cmd.Flags().StringVar(&form.Note, "note", "", "New note")

	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <seq>...",
		Short: "Delete gifts by sequence number",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seqs := make([]int64, 0, len(args))
			for _, arg := range args {
				seq, err := parseSeq(arg)
				if err != nil {
					return err
				}
				seqs = append(seqs, seq)
			}

			if !yes {
				ok, err := confirmDelete(fmt.Sprintf("Delete %d entries %v?", len(seqs), seqs))
				if err != nil {
					return err
				}
				if !ok {
					printInfo(cmd.OutOrStdout(), "Nothing deleted")
					return nil
				}
			}

			var resp dto.DeleteEntriesResponse
			err := newAPIClient().doJSON(cmd.Context(), http.MethodPost, "/api/v1/entries/delete",
				dto.DeleteEntriesRequest{SequenceNumbers: seqs}, nil, &resp)
			if err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %d entries", resp.Deleted))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func summaryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the gift count, grand total and latest gift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary dto.SummaryResponse
			if err := newAPIClient().doJSON(cmd.Context(), http.MethodGet, "/api/v1/summary", nil, nil, &summary); err != nil {
				return err
			}

			if asJSON {
				printJSON(summary)
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n", headerStyle.Render("Count:"), summary.Count)
			fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Total:"), summary.Total.String())
			if summary.Latest != nil {
				fmt.Fprintf(out, "%s #%d %s (%s) %s\n", headerStyle.Render("Latest:"),
					summary.Latest.Seq, summary.Latest.Name, summary.Latest.Affiliation, summary.Latest.Amount.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response as JSON")

	return cmd
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := newAPIClient().download(cmd.Context(), "/api/v1/export")
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if output == "" {
				output = filename
			}
			if output == "" {
				output = "wedding_list_final.csv"
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved %s (%d bytes)", output, len(data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default: server-suggested name)")

	return cmd
}

func renderEntries(w io.Writer, list dto.ListEntriesResponse) {
	if len(list.Entries) == 0 {
		printInfo(w, "No gifts recorded yet")
		return
	}

	rows := make([][]string, 0, len(list.Entries))
	for _, e := range list.Entries {
		running := ""
		if e.RunningTotal != nil {
			running = e.RunningTotal.String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.Seq, 10),
			truncate(e.Name, nameWidth),
			truncate(e.Affiliation, affiliationWidth),
			e.Amount.String(),
			truncate(e.Note, noteWidth),
			e.CreatedAt.Local().Format(timeLayout),
			running,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("No", "Name", "Affiliation", "Amount", "Note", "Time", "Running").
		Rows(rows...)

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d entries, total %s\n", list.Count, list.Total.String())
}

func parseSeq(s string) (int64, error) {
	seq, err := strconv.ParseInt(s, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("invalid sequence number %q", s)
	}
	return seq, nil
}

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render(successSymbol), message)
}

func printInfo(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", infoStyle.Render(infoSymbol), message)
}

// promptEntryForm asks for the fields in the order they are usually read
// off an envelope: name, amount, affiliation, note.
func promptEntryForm(form *entryForm) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&form.Name).
				Validate(domain.ValidateName),
			huh.NewInput().
				Title("Amount").
				Value(&form.Amount).
				Validate(func(s string) error {
					_, err := domain.ParseAmount(s)
					return err
				}),
			huh.NewInput().
				Title("Affiliation").
				Value(&form.Affiliation),
			huh.NewInput().
				Title("Note").
				Value(&form.Note),
		),
	).Run()
	if err != nil {
		return fmt.Errorf("entry form: %w", err)
	}
	return nil
}

// promptYesNo returns false without asking when stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool
	err := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm).
		Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
