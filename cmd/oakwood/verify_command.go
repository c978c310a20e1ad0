package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"oakwood/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <isbn>",
		Short: "Reconcile a catalogue record against Open Library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			verifier, err := ctx.newVerifier(store)
			if err != nil {
				return err
			}

			isbn := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetching Open Library record for %s...\n", isbn)

			session, err := verifier.Start(cmd.Context(), isbn)
			if err != nil {
				return err
			}

			for event := range session.Events() {
				switch event.State {
				case verify.StateFailed:
					return fmt.Errorf("verification failed: %w", event.Err)
				case verify.StateAutoVerified:
					fmt.Fprintf(out, "All fields match; %s marked verified.\n", isbn)
					return reportResult(out, session)
				case verify.StateComparing:
					fmt.Fprintf(out, "%d field(s) differ from the external record.\n", len(event.Discrepancies))
				}
			}

			if session.State() != verify.StateResolving {
				return fmt.Errorf("unexpected session state %s", session.State())
			}
			return resolveInteractively(cmd, session)
		},
	}
}

func resolveInteractively(cmd *cobra.Command, session *verify.Session) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	for session.State() == verify.StateResolving {
		prompt, err := session.CurrentPrompt()
		if err != nil {
			return err
		}
		disc := prompt.Discrepancy
		fmt.Fprintf(out, "\nField %d/%d: %s\n", prompt.Position, prompt.Total, disc.Display)
		fmt.Fprintln(out, renderTable(
			textColumns("Source", "Value"),
			[][]string{
				{"local", displayValue(disc.Local)},
				{"external", displayValue(disc.Remote)},
			},
		))
		fmt.Fprint(out, "Choose [1] keep local, [2] use external, [s] skip, [q] cancel: ")

		choice, err := readChoice(reader)
		if err != nil {
			session.Cancel()
			return err
		}

		var decision verify.Decision
		switch choice {
		case "1", "k":
			decision = verify.DecisionKeepLocal
		case "2", "u":
			decision = verify.DecisionUseExternal
		case "s":
			decision = verify.DecisionSkip
		case "q":
			session.Cancel()
			fmt.Fprintln(out, "Verification cancelled; no changes were made.")
			return nil
		default:
			fmt.Fprintf(out, "Unrecognized choice %q.\n", choice)
			continue
		}

		if err := session.SubmitDecision(cmd.Context(), decision); err != nil {
			return err
		}
	}

	return reportResult(out, session)
}

func readChoice(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	if choice == "" && err == io.EOF {
		return "q", nil
	}
	return choice, nil
}

func reportResult(out io.Writer, session *verify.Session) error {
	result, err := session.Result()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nVerified %s", session.ISBN())
	if result.Book != nil {
		fmt.Fprintf(out, " (%s)", result.Book.Title)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Fields updated: %s\n", fieldList(result.Updated))
	fmt.Fprintf(out, "Fields skipped: %s\n", fieldList(result.Skipped))
	if result.AuditErr != nil {
		fmt.Fprintf(out, "Warning: the change was saved but the activity log entry failed: %v\n", result.AuditErr)
	}
	return nil
}

func fieldList(fields []verify.FieldID) string {
	if len(fields) == 0 {
		return "none"
	}
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = string(field)
	}
	return strings.Join(names, ", ")
}

func displayValue(value string) string {
	if value == "" {
		return "(empty)"
	}
	return value
}
