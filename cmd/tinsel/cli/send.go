package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinselhq/tinsel/internal/client"
)

func newSendCmd() *cobra.Command {
	var params client.SendParams
	var recipientsFile string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send holiday emails to a list of recipients",
		Long: `Submit a holiday email batch. Recipients are comma or newline separated
and may also be read from a file (or stdin with --recipients-file -).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, params, recipientsFile)
		},
	}

	cmd.Flags().StringVar(&params.HolidayName, "holiday", "", "Holiday name (required)")
	cmd.Flags().StringVar(&params.Tone, "tone", "", "Email tone: warm, formal, playful, heartfelt")
	cmd.Flags().StringVar(&params.AudienceType, "audience", "", "Audience type: business or personal")
	cmd.Flags().StringVar(&params.Language, "language", "", "Email language code, e.g. en")
	cmd.Flags().StringVar(&params.SenderName, "from", "", "Sender name (required)")
	cmd.Flags().StringVar(&params.Recipients, "to", "", "Recipient email addresses")
	cmd.Flags().StringVar(&recipientsFile, "recipients-file", "", "Read recipients from a file, - for stdin")
	cmd.MarkFlagRequired("holiday")
	cmd.MarkFlagRequired("from")

	return cmd
}

func runSend(cmd *cobra.Command, params client.SendParams, recipientsFile string) error {
	if recipientsFile != "" {
		var data []byte
		var err error
		if recipientsFile == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(recipientsFile)
		}
		if err != nil {
			return fmt.Errorf("read recipients: %w", err)
		}
		if params.Recipients != "" {
			params.Recipients += "\n"
		}
		params.Recipients += string(data)
	}
	if strings.TrimSpace(params.Recipients) == "" {
		return fmt.Errorf("no recipients given (use --to or --recipients-file)")
	}

	sm, err := newSession()
	if err != nil {
		return err
	}
	if !sm.Authenticated() {
		return fmt.Errorf("not signed in (run: tinsel login)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	resp, err := sm.Send(ctx, params)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent to %d recipient(s).\n", resp.RecipientCount)
	return nil
}
