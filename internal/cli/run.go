package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"account_ledger/internal/ledger"
	"account_ledger/internal/repository/memory"
	"account_ledger/internal/scenario"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario against a fresh ledger",
		Long: `Open the accounts declared in a scenario file, replay its steps in order
and print every step outcome, the final balances and each account history.

The command fails when a step outcome differs from its expect_error.`,
		Example: `  ledger run scenarios/session.yaml
  ledger run --log-level debug --log-format text session.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			svc := ledger.NewService(memory.NewAccountRepository(), a.logger)
			report, runErr := scenario.NewRunner(svc, a.logger).Run(cmd.Context(), sc)
			if report == nil {
				return runErr
			}

			if err := renderReport(cmd.Context(), cmd.OutOrStdout(), svc, report); err != nil {
				return err
			}
			return runErr
		},
	}
}

func renderReport(ctx context.Context, w io.Writer, svc *ledger.Service, report *scenario.Report) error {
	steps := table.NewWriter()
	steps.SetOutputMirror(w)
	steps.SetStyle(table.StyleLight)
	steps.SetTitle("Steps")
	steps.AppendHeader(table.Row{"#", "Op", "Account", "Value", "Expected", "Outcome", "Balance", "Result"})
	for _, res := range report.Results {
		steps.AppendRow(table.Row{
			res.Index,
			res.Step.Op,
			stepAccounts(res.Step),
			stepValue(res.Step),
			orDash(res.Step.ExpectError),
			outcome(res),
			balanceCell(res),
			passLabel(res.Passed),
		})
	}
	steps.AppendFooter(table.Row{"", "", "", "", "", "", "failed", strconv.Itoa(report.Failed())})
	steps.Render()

	balances := table.NewWriter()
	balances.SetOutputMirror(w)
	balances.SetStyle(table.StyleLight)
	balances.SetTitle("Accounts")
	balances.AppendHeader(table.Row{"Name", "Summary"})
	for _, acc := range report.Accounts {
		summary, err := svc.Describe(ctx, acc.Account.ID())
		if err != nil {
			return err
		}
		balances.AppendRow(table.Row{acc.Name, summary})
	}
	balances.Render()

	history := table.NewWriter()
	history.SetOutputMirror(w)
	history.SetStyle(table.StyleLight)
	history.SetTitle("History")
	history.AppendHeader(table.Row{"Name", "#", "Entry"})
	for _, acc := range report.Accounts {
		lines, err := svc.History(ctx, acc.Account.ID())
		if err != nil {
			return err
		}
		for i, line := range lines {
			history.AppendRow(table.Row{acc.Name, i + 1, line})
		}
	}
	history.Render()
	return nil
}

func stepAccounts(step scenario.Step) string {
	if step.Op == scenario.OpTransfer {
		return step.Account + " -> " + step.To
	}
	return step.Account
}

func stepValue(step scenario.Step) string {
	if step.Op == scenario.OpInterest {
		return step.Rate.String() + "%"
	}
	return step.Amount.String()
}

func outcome(res scenario.StepResult) string {
	if res.Err == nil {
		return "ok"
	}
	if kind := scenario.ErrorKind(res.Err); kind != "" {
		return kind
	}
	return res.Err.Error()
}

func balanceCell(res scenario.StepResult) string {
	if res.Err != nil {
		return "-"
	}
	return fmt.Sprintf("$%s", res.Balance.StringFixed(2))
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
